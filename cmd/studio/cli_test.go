package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadim/neo-studio/internal/domain/publication/entity"
	"github.com/vadim/neo-studio/internal/domain/resource"
)

// studioBackend fakes the content backend routes used by the CLI
type studioBackend struct {
	deletes  atomic.Int32
	publishs atomic.Int32
}

func (b *studioBackend) start(t *testing.T) {
	t.Helper()

	future := time.Now().Add(48 * time.Hour).UTC()
	expires := time.Now().Add(3 * time.Hour).UTC()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /publications", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": 1, "statut": "brouillon", "titre_publication": "Lancement", "message": "Nouveau produit"},
			{"id": 2, "statut": "programme", "titre_publication": "Soldes", "message": "-50%", "date_programmee": future},
		})
	})
	mux.HandleFunc("POST /publications/{id}/publish", func(w http.ResponseWriter, r *http.Request) {
		b.publishs.Add(1)
		json.NewEncoder(w).Encode(map[string]any{"id": r.PathValue("id"), "statut": "publie", "titre_publication": "Lancement"})
	})
	mux.HandleFunc("DELETE /publications/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.deletes.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /plateformes", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{
			{"id": 5, "id_plateforme": 1, "nom_plateforme": "x", "username": "@studio", "token_expires_at": expires},
		}})
	})
	mux.HandleFunc("GET /templates", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": 1, "titre": "Annonce", "structure": "Bonjour {{prenom}}"},
			{"id": 2, "titre": "Relance", "structure": "Encore là ?"},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	baseURL = srv.URL
	t.Cleanup(func() { baseURL = "" })
	t.Setenv("BACKEND_ACCESS_TOKEN", "token")
	t.Setenv("BACKEND_EMAIL", "")
}

func newTestCmd(stdin string) (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	return cmd, &out, &errOut
}

func TestPublicationsList(t *testing.T) {
	(&studioBackend{}).start(t)

	listStatus = "PROGRAMME"
	defer func() { listStatus = "" }()

	cmd, out, _ := newTestCmd("")
	require.NoError(t, runPublicationsList(cmd, nil))

	assert.Contains(t, out.String(), "Soldes")
	assert.NotContains(t, out.String(), "Lancement")
	assert.Contains(t, out.String(), "STATUT")
}

func TestPublicationsList_InvalidStatus(t *testing.T) {
	listStatus = "archive"
	defer func() { listStatus = "" }()

	cmd, _, _ := newTestCmd("")
	assert.ErrorIs(t, runPublicationsList(cmd, nil), entity.ErrInvalidStatus)
}

func TestPublicationsPublish(t *testing.T) {
	b := &studioBackend{}
	b.start(t)

	cmd, out, errOut := newTestCmd("")
	require.NoError(t, runPublicationsPublish(cmd, []string{"1"}))

	assert.EqualValues(t, 1, b.publishs.Load())
	assert.Contains(t, out.String(), "publie")
	assert.Contains(t, errOut.String(), "✓")
}

func TestPublicationsPublish_NotAllowed(t *testing.T) {
	b := &studioBackend{}
	b.start(t)

	cmd, _, _ := newTestCmd("")
	err := runPublicationsPublish(cmd, []string{"2"})

	assert.ErrorIs(t, err, entity.ErrActionNotAllowed)
	assert.Zero(t, b.publishs.Load())
}

func TestPublicationsDelete_Declined(t *testing.T) {
	b := &studioBackend{}
	b.start(t)

	cmd, _, errOut := newTestCmd("n\n")
	err := runPublicationsDelete(cmd, []string{"1"})

	assert.ErrorIs(t, err, entity.ErrDeletionNotConfirmed)
	assert.Zero(t, b.deletes.Load())
	assert.Contains(t, errOut.String(), "Lancement")
}

func TestPublicationsDelete_Confirmed(t *testing.T) {
	b := &studioBackend{}
	b.start(t)

	cmd, _, _ := newTestCmd("oui\n")
	require.NoError(t, runPublicationsDelete(cmd, []string{"1"}))
	assert.EqualValues(t, 1, b.deletes.Load())

	assumeYes = true
	defer func() { assumeYes = false }()

	cmd, _, _ = newTestCmd("")
	require.NoError(t, runPublicationsDelete(cmd, []string{"2"}))
	assert.EqualValues(t, 2, b.deletes.Load())
}

func TestConnections(t *testing.T) {
	(&studioBackend{}).start(t)

	cmd, out, _ := newTestCmd("")
	require.NoError(t, runConnections(cmd, []string{"X", "LinkedIn"}))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "@studio")
	assert.Contains(t, lines[1], "oui")
	assert.Contains(t, lines[2], "LinkedIn")
	assert.Contains(t, lines[2], "non")
}

func TestSearch(t *testing.T) {
	(&studioBackend{}).start(t)

	cmd, out, _ := newTestCmd("")
	require.NoError(t, runSearch(cmd, []string{"templates", "prenom"}))

	var got []resource.Template
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Annonce", got[0].Titre)

	err := runSearch(cmd, []string{"inconnu"})
	assert.ErrorIs(t, err, resource.ErrUnknownResource)
	assert.Contains(t, err.Error(), "templates")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "court", truncate("court", 10))
	assert.Equal(t, "deux mots", truncate("deux\n  mots", 10))
	assert.Equal(t, "élément…", truncate("éléments longs", 8))
}

func TestPublicationsStats_JSON(t *testing.T) {
	(&studioBackend{}).start(t)

	jsonOutput = true
	defer func() { jsonOutput = false }()

	cmd, out, _ := newTestCmd("")
	require.NoError(t, publicationsStatsCmd.RunE(cmd, nil))

	var stats struct {
		Total     int `json:"total"`
		Drafts    int `json:"brouillons"`
		Scheduled int `json:"programmees"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &stats))
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Drafts)
	assert.Equal(t, 1, stats.Scheduled)
}

func TestPublicationsUpcoming(t *testing.T) {
	(&studioBackend{}).start(t)

	cmd, out, _ := newTestCmd("")
	require.NoError(t, publicationsUpcomingCmd.RunE(cmd, nil))

	assert.Contains(t, out.String(), "Soldes")
	assert.NotContains(t, out.String(), "Lancement")
}
