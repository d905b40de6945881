package repositories

import (
	"database/sql"
	"fmt"

	"github.com/Dosada05/tennis-tournament/models"
)

// entityNameJoins attaches player and pair rows to a table that carries
// entity_id/entity_type columns under the given alias.
func entityNameJoins(alias string) string {
	return fmt.Sprintf(`
		LEFT JOIN players p ON %[1]s.entity_type = 'player' AND p.id = %[1]s.entity_id
		LEFT JOIN pairs pr ON %[1]s.entity_type = 'pair' AND pr.id = %[1]s.entity_id
		LEFT JOIN players p1 ON p1.id = pr.player1_id
		LEFT JOIN players p2 ON p2.id = pr.player2_id`, alias)
}

const entityNameColumns = `
		p.first_name, p.last_name, p.nickname,
		p1.first_name, p1.last_name, p1.nickname,
		p2.first_name, p2.last_name, p2.nickname`

type nullPlayer struct {
	first, last, nick sql.NullString
}

func (n *nullPlayer) player() *models.Player {
	if !n.first.Valid && !n.last.Valid {
		return nil
	}
	p := &models.Player{FirstName: n.first.String, LastName: n.last.String}
	if n.nick.Valid {
		nick := n.nick.String
		p.Nickname = &nick
	}
	return p
}

// entityNameScan holds the nullable columns selected by entityNameColumns.
type entityNameScan struct {
	single, member1, member2 nullPlayer
}

func (s *entityNameScan) dest() []interface{} {
	return []interface{}{
		&s.single.first, &s.single.last, &s.single.nick,
		&s.member1.first, &s.member1.last, &s.member1.nick,
		&s.member2.first, &s.member2.last, &s.member2.nick,
	}
}

func (s *entityNameScan) name(entityType models.EntityType) string {
	if entityType == models.EntityPair {
		pair := &models.Pair{Player1: s.member1.player(), Player2: s.member2.player()}
		return pair.DisplayName()
	}
	return s.single.player().DisplayName()
}
