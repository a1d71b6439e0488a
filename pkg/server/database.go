package server

import (
	"context"
	"encoding/json"
	"time"

	"codeberg.org/tavlalab/tavla"
	"github.com/jackc/pgx/v5"
	"github.com/jlouis/glicko2"
	"github.com/rs/zerolog/log"
)

const databaseSchema = `
CREATE TABLE player (
	id      serial PRIMARY KEY,
	name    text NOT NULL UNIQUE,
	rating  integer NOT NULL DEFAULT 150000,
	wins    integer NOT NULL DEFAULT 0,
	losses  integer NOT NULL DEFAULT 0
);
CREATE TABLE game (
	id       serial PRIMARY KEY,
	started  bigint NOT NULL,
	ended    bigint NOT NULL DEFAULT 0,
	player1  text NOT NULL,
	player2  text NOT NULL,
	password text NOT NULL DEFAULT '',
	winner   integer NOT NULL DEFAULT 0,
	state    text NOT NULL
);
`

type postgresStore struct {
	db *pgx.Conn
}

func connectStore(dataSource string) (*postgresStore, error) {
	db, err := pgx.Connect(context.Background(), dataSource)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(context.Background(), "SELECT 1=1")
	if err != nil {
		return nil, err
	}

	s := &postgresStore{db: db}
	s.initDB()
	return s, nil
}

func (s *postgresStore) begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, "SET SCHEMA 'tavla'")
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (s *postgresStore) initDB() {
	tx, err := s.begin(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer tx.Commit(context.Background())

	var result int
	err = tx.QueryRow(context.Background(), "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = 'tavla' AND table_name = 'game'").Scan(&result)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	} else if result > 0 {
		return // Database has been initialized.
	}

	_, err = tx.Exec(context.Background(), databaseSchema)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	log.Info().Msg("initialized database schema")
}

func (s *postgresStore) CreateGame(ctx context.Context, rec *GameRecord) (int64, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Commit(ctx)

	state, err := json.Marshal(rec.Snapshot)
	if err != nil {
		return 0, err
	}

	for _, name := range []string{rec.Player1, rec.Player2} {
		_, err = tx.Exec(ctx, "INSERT INTO player (name) VALUES ($1) ON CONFLICT (name) DO NOTHING", name)
		if err != nil {
			return 0, err
		}
	}

	var id int64
	err = tx.QueryRow(ctx, "INSERT INTO game (started, player1, player2, password, state) VALUES ($1, $2, $3, $4, $5) RETURNING id", rec.Started.Unix(), rec.Player1, rec.Player2, rec.PasswordHash, state).Scan(&id)
	return id, err
}

func (s *postgresStore) SaveSnapshot(ctx context.Context, id int64, snap *tavla.Snapshot) error {
	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Commit(ctx)

	state, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, "UPDATE game SET state = $1 WHERE id = $2", state, id)
	return err
}

func (s *postgresStore) RecordResult(ctx context.Context, rec *GameRecord) error {
	if rec.Winner == tavla.SideNone {
		return nil
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Commit(ctx)

	ended := rec.Ended
	if ended.IsZero() {
		ended = time.Now()
	}
	_, err = tx.Exec(ctx, "UPDATE game SET ended = $1, winner = $2 WHERE id = $3", ended.Unix(), int(rec.Winner), rec.ID)
	if err != nil {
		return err
	}

	winner, loser := rec.Player1, rec.Player2
	if rec.Winner == tavla.Side2 {
		winner, loser = rec.Player2, rec.Player1
	}
	if winner == loser {
		return nil
	}
	return s.updateRatings(ctx, tx, winner, loser)
}

// updateRatings applies a Glicko-2 exchange between the two players.
// Ratings are stored multiplied by 100.
func (s *postgresStore) updateRatings(ctx context.Context, tx pgx.Tx, winner string, loser string) error {
	var winnerRating, loserRating int
	err := tx.QueryRow(ctx, "SELECT rating FROM player WHERE name = $1", winner).Scan(&winnerRating)
	if err != nil {
		return err
	}
	err = tx.QueryRow(ctx, "SELECT rating FROM player WHERE name = $1", loser).Scan(&loserRating)
	if err != nil {
		return err
	}

	rating1 := float64(winnerRating) / 100
	rating2 := float64(loserRating) / 100
	rating1New, _, _ := glicko2.Rank(rating1, 50, 0.06, []glicko2.Opponent{ratingPlayer{rating2, 30, 0.06, 1}}, 0.6)
	rating2New, _, _ := glicko2.Rank(rating2, 50, 0.06, []glicko2.Opponent{ratingPlayer{rating1, 30, 0.06, 0}}, 0.6)

	_, err = tx.Exec(ctx, "UPDATE player SET rating = $1, wins = wins + 1 WHERE name = $2", int(rating1New*100), winner)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, "UPDATE player SET rating = $1, losses = losses + 1 WHERE name = $2", int(rating2New*100), loser)
	return err
}

func (s *postgresStore) LoadLatest(ctx context.Context) (*GameRecord, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Commit(ctx)

	rec := &GameRecord{}
	var started int64
	var state []byte
	err = tx.QueryRow(ctx, "SELECT id, started, player1, player2, password, state FROM game WHERE winner = 0 ORDER BY id DESC LIMIT 1").Scan(&rec.ID, &started, &rec.Player1, &rec.Player2, &rec.PasswordHash, &state)
	if err == pgx.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	rec.Started = time.Unix(started, 0)

	rec.Snapshot = &tavla.Snapshot{}
	err = json.Unmarshal(state, rec.Snapshot)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

type ratingPlayer struct {
	r       float64
	rd      float64
	sigma   float64
	outcome float64
}

func (p ratingPlayer) R() float64 {
	return p.r
}

func (p ratingPlayer) RD() float64 {
	return p.rd
}

func (p ratingPlayer) Sigma() float64 {
	return p.sigma
}

func (p ratingPlayer) SJ() float64 {
	return p.outcome
}
