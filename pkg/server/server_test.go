package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"codeberg.org/tavlalab/tavla"
	"github.com/coder/websocket"
	"github.com/matryer/is"
)

func testServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(&Options{})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return s, srv
}

func postJSON(t *testing.T, url string, body interface{}, out interface{}) int {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		err = json.NewDecoder(resp.Body).Decode(out)
		if err != nil {
			t.Fatal(err)
		}
	}
	return resp.StatusCode
}

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		err = json.NewDecoder(resp.Body).Decode(out)
		if err != nil {
			t.Fatal(err)
		}
	}
	return resp.StatusCode
}

func TestCreateAndFetchGame(t *testing.T) {
	is := is.New(t)
	_, srv := testServer(t)

	var created newGameResponse
	status := postJSON(t, srv.URL+"/game", &newGameRequest{Player1: "aysel", Player2: "burak"}, &created)
	is.Equal(status, http.StatusCreated)
	is.True(created.ID > 0)
	is.True(created.Initial.Starter != tavla.SideNone)
	is.Equal(created.State.Phase, tavla.PhaseRoll)

	var snap tavla.Snapshot
	status = getJSON(t, srv.URL+"/game", &snap)
	is.Equal(status, http.StatusOK)
	is.Equal(snap.Turn, created.Initial.Starter)
}

func TestCreateGameRequiresPlayerNames(t *testing.T) {
	is := is.New(t)
	_, srv := testServer(t)

	status := postJSON(t, srv.URL+"/game", &newGameRequest{Player1: "aysel"}, nil)
	is.Equal(status, http.StatusBadRequest)
}

func TestCommandsWithoutGame(t *testing.T) {
	is := is.New(t)
	_, srv := testServer(t)

	is.Equal(getJSON(t, srv.URL+"/game", nil), http.StatusNotFound)
	is.Equal(postJSON(t, srv.URL+"/game/roll", &commandRequest{}, nil), http.StatusNotFound)
	is.Equal(getJSON(t, srv.URL+"/game/moves", nil), http.StatusNotFound)
}

func TestRollAndMove(t *testing.T) {
	is := is.New(t)
	_, srv := testServer(t)

	postJSON(t, srv.URL+"/game", &newGameRequest{Player1: "aysel", Player2: "burak"}, nil)

	var rolled commandResponse
	status := postJSON(t, srv.URL+"/game/roll", &commandRequest{}, &rolled)
	is.Equal(status, http.StatusOK)
	is.True(rolled.Roll != nil)
	// Every opening roll can be played from the standard layout.
	is.True(!rolled.Roll.Skipped)
	is.Equal(rolled.State.Phase, tavla.PhaseMove)

	// Rolling again is refused until the turn is played out.
	status = postJSON(t, srv.URL+"/game/roll", &commandRequest{}, nil)
	is.Equal(status, http.StatusConflict)

	var moves [][2]int8
	status = getJSON(t, srv.URL+"/game/moves", &moves)
	is.Equal(status, http.StatusOK)
	is.True(len(moves) > 0)

	var moved commandResponse
	status = postJSON(t, srv.URL+"/game/move", &commandRequest{From: moves[0][0], To: moves[0][1]}, &moved)
	is.Equal(status, http.StatusOK)
	is.True(moved.Result.Moved)
}

func TestRejectedMoveReportsReason(t *testing.T) {
	is := is.New(t)
	_, srv := testServer(t)

	postJSON(t, srv.URL+"/game", &newGameRequest{Player1: "aysel", Player2: "burak"}, nil)
	postJSON(t, srv.URL+"/game/roll", &commandRequest{}, nil)

	// No side can ever move to its own starting stack's far corner in the
	// wrong direction.
	var moved commandResponse
	status := postJSON(t, srv.URL+"/game/move", &commandRequest{From: 30, To: 40}, &moved)
	is.Equal(status, http.StatusUnprocessableEntity)
	is.True(!moved.Result.Moved)
	is.True(moved.Result.Reason != "")
}

func TestGamePassword(t *testing.T) {
	is := is.New(t)
	_, srv := testServer(t)

	postJSON(t, srv.URL+"/game", &newGameRequest{Player1: "aysel", Player2: "burak", Password: "hünkar"}, nil)

	status := postJSON(t, srv.URL+"/game/roll", &commandRequest{}, nil)
	is.Equal(status, http.StatusForbidden)

	status = postJSON(t, srv.URL+"/game/roll", &commandRequest{Password: "wrong"}, nil)
	is.Equal(status, http.StatusForbidden)

	status = postJSON(t, srv.URL+"/game/roll", &commandRequest{Password: "hünkar"}, nil)
	is.Equal(status, http.StatusOK)

	// Reading state never requires the password.
	is.Equal(getJSON(t, srv.URL+"/game", nil), http.StatusOK)
}

func TestWatcherReceivesState(t *testing.T) {
	is := is.New(t)
	_, srv := testServer(t)

	postJSON(t, srv.URL+"/game", &newGameRequest{Player1: "aysel", Player2: "burak"}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/game/watch"
	conn, _, err := websocket.Dial(ctx, url, nil)
	is.NoErr(err)
	defer conn.CloseNow()

	// The current state arrives on connect.
	_, message, err := conn.Read(ctx)
	is.NoErr(err)
	var snap tavla.Snapshot
	is.NoErr(json.Unmarshal(message, &snap))
	is.Equal(snap.Phase, tavla.PhaseRoll)

	// Each accepted command is followed by a fresh state.
	postJSON(t, srv.URL+"/game/roll", &commandRequest{}, nil)
	_, message, err = conn.Read(ctx)
	is.NoErr(err)
	is.NoErr(json.Unmarshal(message, &snap))
	is.Equal(snap.Phase, tavla.PhaseMove)
}

func TestWatcherDisconnectDuringCommands(t *testing.T) {
	is := is.New(t)
	_, srv := testServer(t)

	postJSON(t, srv.URL+"/game", &newGameRequest{Player1: "aysel", Player2: "burak"}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/game/watch"
	conn, _, err := websocket.Dial(ctx, url, nil)
	is.NoErr(err)

	_, _, err = conn.Read(ctx)
	is.NoErr(err)

	// Drop the watcher without warning while commands keep broadcasting
	// state to it from the handler goroutines.
	conn.CloseNow()
	for i := 0; i < 10; i++ {
		postJSON(t, srv.URL+"/game/roll", &commandRequest{}, nil)
		var moves [][2]int8
		getJSON(t, srv.URL+"/game/moves", &moves)
		if len(moves) > 0 {
			postJSON(t, srv.URL+"/game/move", &commandRequest{From: moves[0][0], To: moves[0][1]}, nil)
		}
	}

	// The server keeps serving after the watcher is gone.
	is.Equal(getJSON(t, srv.URL+"/game", nil), http.StatusOK)
}

func TestMemoryStoreResume(t *testing.T) {
	is := is.New(t)
	store := newMemoryStore()

	g := tavla.NewGame()
	g.RollInitial()
	id, err := store.CreateGame(context.Background(), &GameRecord{
		Player1:  "aysel",
		Player2:  "burak",
		Started:  time.Now(),
		Snapshot: g.Snapshot(),
	})
	is.NoErr(err)

	g.RollForTurn()
	is.NoErr(store.SaveSnapshot(context.Background(), id, g.Snapshot()))

	rec, err := store.LoadLatest(context.Background())
	is.NoErr(err)
	is.Equal(rec.ID, id)
	is.Equal(rec.Snapshot.Phase, tavla.PhaseMove)

	// Finished games are not resumed.
	is.NoErr(store.RecordResult(context.Background(), &GameRecord{ID: id, Winner: tavla.Side1, Ended: time.Now()}))
	rec, err = store.LoadLatest(context.Background())
	is.NoErr(err)
	is.Equal(rec, nil)
}
