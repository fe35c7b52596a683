package handlers_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"concursos/internal/auth"
	"concursos/internal/handlers"
	"concursos/internal/handlers/testutils"
	"concursos/internal/vies"
	"concursos/models"
)

// MockStorage implements handlers.StorageInterface with in-memory state so
// read-modify-write flows behave like the real storage.
type MockStorage struct {
	concursos       []models.Concurso
	concursosByNIPC map[string][]models.Concurso
	entidades       map[string]models.Entidade
	settings        map[string]*models.UserSettings
	filtros         map[string]*models.Filtro
}

func newMockStorage() *MockStorage {
	return &MockStorage{
		concursosByNIPC: map[string][]models.Concurso{},
		entidades:       map[string]models.Entidade{},
		settings:        map[string]*models.UserSettings{},
		filtros:         map[string]*models.Filtro{},
	}
}

func (m *MockStorage) GetConcursos(ctx context.Context, search string) ([]models.Concurso, error) {
	if search == "" {
		return m.concursos, nil
	}
	out := []models.Concurso{}
	needle := strings.ToLower(search)
	for _, c := range m.concursos {
		if strings.Contains(strings.ToLower(c.Titulo), needle) ||
			strings.Contains(strings.ToLower(c.Entidade), needle) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MockStorage) GetConcurso(ctx context.Context, id string) (*models.Concurso, error) {
	for _, c := range m.concursos {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *MockStorage) GetConcursosByIDs(ctx context.Context, ids []string) ([]models.Concurso, error) {
	out := []models.Concurso{}
	for _, c := range m.concursos {
		for _, id := range ids {
			if c.ID == id {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

func (m *MockStorage) GetConcursosByNIPC(ctx context.Context, nipc string) ([]models.Concurso, error) {
	return m.concursosByNIPC[nipc], nil
}

func (m *MockStorage) GetEntidades(ctx context.Context) ([]models.Entidade, error) {
	out := []models.Entidade{}
	for _, e := range m.entidades {
		out = append(out, e)
	}
	return out, nil
}

func (m *MockStorage) GetEntidade(ctx context.Context, nipc string) (*models.Entidade, error) {
	e, ok := m.entidades[nipc]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &e, nil
}

func (m *MockStorage) GetEntidadesByNIPCs(ctx context.Context, nipcs []string) ([]models.Entidade, error) {
	out := []models.Entidade{}
	for _, n := range nipcs {
		if e, ok := m.entidades[n]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockStorage) InsertEntidade(ctx context.Context, e *models.Entidade) error {
	if _, ok := m.entidades[e.NIPC]; !ok {
		m.entidades[e.NIPC] = *e
	}
	return nil
}

func (m *MockStorage) GetUserSettings(ctx context.Context, userID string) (*models.UserSettings, error) {
	if s, ok := m.settings[userID]; ok {
		copied := *s
		return &copied, nil
	}
	// missing row is the normal "nothing saved yet" case
	return &models.UserSettings{UserID: userID}, nil
}

func (m *MockStorage) SaveFavoritos(ctx context.Context, userID string, favoritos []string) error {
	s, ok := m.settings[userID]
	if !ok {
		s = &models.UserSettings{UserID: userID}
		m.settings[userID] = s
	}
	s.Favoritos = favoritos
	return nil
}

func (m *MockStorage) SaveEntidadesSeguidas(ctx context.Context, userID string, nipcs []string) error {
	s, ok := m.settings[userID]
	if !ok {
		s = &models.UserSettings{UserID: userID}
		m.settings[userID] = s
	}
	s.Entidades = nipcs
	return nil
}

func (m *MockStorage) CreateFiltro(ctx context.Context, f *models.Filtro) error {
	f.CreatedAt = time.Now()
	copied := *f
	m.filtros[f.ID] = &copied
	return nil
}

func (m *MockStorage) UpdateFiltro(ctx context.Context, f *models.Filtro) error {
	copied := *f
	m.filtros[f.ID] = &copied
	return nil
}

func (m *MockStorage) DeleteFiltro(ctx context.Context, userID, id string) error {
	delete(m.filtros, id)
	return nil
}

func (m *MockStorage) GetFiltro(ctx context.Context, userID, id string) (*models.Filtro, error) {
	f, ok := m.filtros[id]
	if !ok || f.UserID != userID {
		return nil, sql.ErrNoRows
	}
	copied := *f
	return &copied, nil
}

func (m *MockStorage) GetFiltrosByUser(ctx context.Context, userID string) ([]models.Filtro, error) {
	out := []models.Filtro{}
	for _, f := range m.filtros {
		if f.UserID == userID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (m *MockStorage) GetFiltrosByIDs(ctx context.Context, userID string, ids []string) ([]models.Filtro, error) {
	out := []models.Filtro{}
	for _, id := range ids {
		if f, ok := m.filtros[id]; ok && f.UserID == userID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (m *MockStorage) GetDistritos(ctx context.Context) ([]string, error) {
	return []string{"Lisboa", "Porto"}, nil
}

func (m *MockStorage) GetMunicipios(ctx context.Context, distrito string) ([]string, error) {
	if distrito == "Porto" {
		return []string{"Maia", "Porto"}, nil
	}
	return []string{"Lisboa", "Maia", "Porto"}, nil
}

// mockVies records whether the upstream was contacted.
type mockVies struct {
	called bool
	body   []byte
	result *vies.Result
	err    error
}

func (m *mockVies) Check(ctx context.Context, nipc string) ([]byte, error) {
	m.called = true
	return m.body, m.err
}

func (m *mockVies) Lookup(ctx context.Context, nipc string) (*vies.Result, error) {
	m.called = true
	return m.result, m.err
}

func datePtr(t time.Time) *time.Time { return &t }

func authedRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	return req.WithContext(auth.WithUserID(req.Context(), "user1"))
}

func TestValidatorHandlerRequiresTaxID(t *testing.T) {
	mv := &mockVies{}
	handler := handlers.NewHandler(newMockStorage(), mv, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/validator", nil)
	w := httptest.NewRecorder()
	handler.ValidatorHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.Contains(t, string(body), "taxId is required")
	// no outbound call is made without a tax id
	require.False(t, mv.called)
}

func TestValidatorHandlerRelaysUpstreamBody(t *testing.T) {
	upstream := `{"isValid":true,"name":"MUNICIPIO DE BRAGA","vatNumber":"506901173"}`
	mv := &mockVies{body: []byte(upstream)}
	handler := handlers.NewHandler(newMockStorage(), mv, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/validator?taxId=506901173", nil)
	w := httptest.NewRecorder()
	handler.ValidatorHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)

	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, upstream, string(body))
	require.Equal(t, "application/json", res.Header.Get("Content-Type"))
}

func TestValidatorHandlerUpstreamFailure(t *testing.T) {
	mv := &mockVies{err: io.ErrUnexpectedEOF}
	handler := handlers.NewHandler(newMockStorage(), mv, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/validator?taxId=123", nil)
	w := httptest.NewRecorder()
	handler.ValidatorHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)

	require.Equal(t, http.StatusInternalServerError, res.StatusCode)
	require.Contains(t, string(body), "error")
}

func TestToggleFavoritoDoubleToggle(t *testing.T) {
	store := newMockStorage()
	store.settings["user1"] = &models.UserSettings{UserID: "user1", Favoritos: []string{"c1"}}
	handler := handlers.NewHandler(store, &mockVies{}, nil)

	toggle := func() {
		req := authedRequest(http.MethodPost, "/api/favoritos/c2/toggle", nil)
		req = testutils.WithChiURLParams(req, map[string]string{"concursoId": "c2"})
		w := httptest.NewRecorder()
		handler.ToggleFavoritoHandler(w, req)
		require.Equal(t, http.StatusOK, w.Result().StatusCode)
	}

	toggle()
	require.Equal(t, []string{"c1", "c2"}, []string(store.settings["user1"].Favoritos))

	toggle()
	require.Equal(t, []string{"c1"}, []string(store.settings["user1"].Favoritos))
}

func TestGetFavoritosNoSettingsRow(t *testing.T) {
	handler := handlers.NewHandler(newMockStorage(), &mockVies{}, nil)

	req := authedRequest(http.MethodGet, "/api/favoritos", nil)
	w := httptest.NewRecorder()
	handler.GetFavoritosHandler(w, req)

	res := w.Result()
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)

	var out handlers.FavoritosResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	require.Empty(t, out.Favoritos)
	require.Equal(t, 0, out.Total)
	require.Equal(t, 0, out.Ativos)
}

func TestGetFavoritosCountsAtivos(t *testing.T) {
	store := newMockStorage()
	future := time.Now().AddDate(0, 0, 10)
	past := time.Now().AddDate(0, 0, -10)
	store.concursos = []models.Concurso{
		{ID: "c1", PrazoPropostas: datePtr(future)},
		{ID: "c2", PrazoPropostas: datePtr(past)},
	}
	store.settings["user1"] = &models.UserSettings{UserID: "user1", Favoritos: []string{"c1", "c2"}}
	handler := handlers.NewHandler(store, &mockVies{}, nil)

	req := authedRequest(http.MethodGet, "/api/favoritos", nil)
	w := httptest.NewRecorder()
	handler.GetFavoritosHandler(w, req)

	var out handlers.FavoritosResponse
	require.NoError(t, json.NewDecoder(w.Result().Body).Decode(&out))
	require.Equal(t, 2, out.Total)
	require.Equal(t, 1, out.Ativos)
}

func TestCreateFiltroRequiresNome(t *testing.T) {
	handler := handlers.NewHandler(newMockStorage(), &mockVies{}, nil)

	req := authedRequest(http.MethodPost, "/api/filtros/new", strings.NewReader(`{"nome":"  "}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.CreateFiltroHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)

	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.Contains(t, string(body), "nome is required")
}

func TestCreateFiltroHandler(t *testing.T) {
	store := newMockStorage()
	handler := handlers.NewHandler(store, &mockVies{}, nil)

	reqBody := `{"nome":"Obras no Porto","distrito":"Porto","keywords":["obras"]}`
	req := authedRequest(http.MethodPost, "/api/filtros/new", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.CreateFiltroHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var out models.Filtro
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	require.NotEmpty(t, out.ID)
	require.Equal(t, "Obras no Porto", out.Nome)
	require.Len(t, store.filtros, 1)
}

func TestEditFiltroKeepsIdentifier(t *testing.T) {
	store := newMockStorage()
	store.filtros["f1"] = &models.Filtro{ID: "f1", UserID: "user1", Nome: "old"}
	handler := handlers.NewHandler(store, &mockVies{}, nil)

	req := authedRequest(http.MethodPatch, "/api/filtros/f1/edit", strings.NewReader(`{"nome":"novo nome"}`))
	req.Header.Set("Content-Type", "application/json")
	req = testutils.WithChiURLParams(req, map[string]string{"filtroId": "f1"})
	w := httptest.NewRecorder()
	handler.EditFiltroHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var out models.Filtro
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	require.Equal(t, "f1", out.ID)
	require.Equal(t, "novo nome", out.Nome)
}

func TestEditFiltroOwnership(t *testing.T) {
	store := newMockStorage()
	store.filtros["f1"] = &models.Filtro{ID: "f1", UserID: "someone-else", Nome: "theirs"}
	handler := handlers.NewHandler(store, &mockVies{}, nil)

	req := authedRequest(http.MethodPatch, "/api/filtros/f1/edit", strings.NewReader(`{"nome":"mine now"}`))
	req = testutils.WithChiURLParams(req, map[string]string{"filtroId": "f1"})
	w := httptest.NewRecorder()
	handler.EditFiltroHandler(w, req)

	require.Equal(t, http.StatusNotFound, w.Result().StatusCode)
}

func TestDeleteFiltroHandler(t *testing.T) {
	store := newMockStorage()
	store.filtros["f1"] = &models.Filtro{ID: "f1", UserID: "user1", Nome: "mine"}
	handler := handlers.NewHandler(store, &mockVies{}, nil)

	req := authedRequest(http.MethodDelete, "/api/filtros/f1", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"filtroId": "f1"})
	w := httptest.NewRecorder()
	handler.DeleteFiltroHandler(w, req)

	require.Equal(t, http.StatusOK, w.Result().StatusCode)
	require.Empty(t, store.filtros)
}

func TestDeleteFiltroNotOwned(t *testing.T) {
	store := newMockStorage()
	store.filtros["f1"] = &models.Filtro{ID: "f1", UserID: "someone-else", Nome: "theirs"}
	handler := handlers.NewHandler(store, &mockVies{}, nil)

	req := authedRequest(http.MethodDelete, "/api/filtros/f1", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"filtroId": "f1"})
	w := httptest.NewRecorder()
	handler.DeleteFiltroHandler(w, req)

	require.Equal(t, http.StatusNotFound, w.Result().StatusCode)
	require.Len(t, store.filtros, 1)
}

func TestGetConcursosHandlerStatusPartition(t *testing.T) {
	store := newMockStorage()
	future := time.Now().AddDate(0, 0, 10)
	past := time.Now().AddDate(0, 0, -10)
	store.concursos = []models.Concurso{
		{ID: "active", Titulo: "Ativo", PrazoPropostas: datePtr(future)},
		{ID: "expired", Titulo: "Expirado", PrazoPropostas: datePtr(past)},
		{ID: "undated", Titulo: "Sem prazo"},
	}
	handler := handlers.NewHandler(store, &mockVies{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/concursos?status=ativos", nil)
	w := httptest.NewRecorder()
	handler.GetConcursosHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)

	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, string(body), "Ativo")
	require.NotContains(t, string(body), "Expirado")
	require.NotContains(t, string(body), "Sem prazo")
}

func TestGetConcursosHandlerFiltersRequireAuth(t *testing.T) {
	handler := handlers.NewHandler(newMockStorage(), &mockVies{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/concursos?filters=f1", nil)
	w := httptest.NewRecorder()
	handler.GetConcursosHandler(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Result().StatusCode)
}

func TestGetConcursosHandlerSearchNarrowsBeforeFilters(t *testing.T) {
	store := newMockStorage()
	future := datePtr(time.Now().AddDate(0, 0, 10))
	porto := "Porto"
	store.concursos = []models.Concurso{
		{ID: "a", Titulo: "Pavimentação de ruas", Distrito: &porto, PrazoPropostas: future},
		{ID: "b", Titulo: "Pavimentação de estradas", PrazoPropostas: future},
		{ID: "c", Titulo: "Aquisição de viaturas", Distrito: &porto, PrazoPropostas: future},
	}
	store.filtros["f1"] = &models.Filtro{ID: "f1", UserID: "user1", Nome: "porto", Distrito: &porto}
	handler := handlers.NewHandler(store, &mockVies{}, nil)

	req := authedRequest(http.MethodGet, "/api/concursos?search=pavimenta&filters=f1", nil)
	w := httptest.NewRecorder()
	handler.GetConcursosHandler(w, req)

	res := w.Result()
	defer res.Body.Close()

	var out []models.Concurso
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	require.Len(t, out, 1)
	require.Equal(t, "a", out[0].ID)
}

func TestGetEntidadesSeguidasZeroConcursos(t *testing.T) {
	store := newMockStorage()
	store.entidades["500000000"] = models.Entidade{NIPC: "500000000", Entidade: "Junta de Freguesia"}
	store.settings["user1"] = &models.UserSettings{UserID: "user1", Entidades: []string{"500000000"}}
	handler := handlers.NewHandler(store, &mockVies{}, nil)

	req := authedRequest(http.MethodGet, "/api/entidades/seguidas", nil)
	w := httptest.NewRecorder()
	handler.GetEntidadesSeguidasHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var out []handlers.EntidadeSeguida
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	require.Len(t, out, 1)
	require.Equal(t, 0, out[0].ProcedimentosAtivos)
}

func TestFollowEntidadeDuplicate(t *testing.T) {
	store := newMockStorage()
	store.entidades["500000000"] = models.Entidade{NIPC: "500000000", Entidade: "Junta"}
	store.settings["user1"] = &models.UserSettings{UserID: "user1", Entidades: []string{"500000000"}}
	handler := handlers.NewHandler(store, &mockVies{}, nil)

	req := authedRequest(http.MethodPost, "/api/entidades/500000000/follow", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"nipc": "500000000"})
	w := httptest.NewRecorder()
	handler.FollowEntidadeHandler(w, req)

	require.Equal(t, http.StatusConflict, w.Result().StatusCode)
}

func TestLookupEntidadeRegistersAndFollows(t *testing.T) {
	store := newMockStorage()
	mv := &mockVies{result: &vies.Result{IsValid: true, Name: "MUNICIPIO DE AVEIRO"}}
	handler := handlers.NewHandler(store, mv, nil)

	req := authedRequest(http.MethodPost, "/api/entidades/lookup?nipc=501000000", nil)
	w := httptest.NewRecorder()
	handler.LookupEntidadeHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.True(t, mv.called)

	require.Contains(t, store.entidades, "501000000")
	require.Equal(t, []string{"501000000"}, []string(store.settings["user1"].Entidades))
}

func TestLookupEntidadeInvalidNIPC(t *testing.T) {
	mv := &mockVies{result: &vies.Result{IsValid: false}}
	handler := handlers.NewHandler(newMockStorage(), mv, nil)

	req := authedRequest(http.MethodPost, "/api/entidades/lookup?nipc=999", nil)
	w := httptest.NewRecorder()
	handler.LookupEntidadeHandler(w, req)

	require.Equal(t, http.StatusNotFound, w.Result().StatusCode)
}

func TestGetCalendarioHandler(t *testing.T) {
	store := newMockStorage()
	now := time.Now()
	prazo := now.AddDate(0, 0, 3)
	store.concursos = []models.Concurso{
		{ID: "c1", Titulo: "Em curso", DataEnvio: now.AddDate(0, 0, -5), PrazoPropostas: datePtr(prazo)},
		{ID: "c2", Titulo: "Sem prazo", DataEnvio: now.AddDate(0, 0, -5)},
	}
	store.settings["user1"] = &models.UserSettings{UserID: "user1", Favoritos: []string{"c1", "c2"}}
	handler := handlers.NewHandler(store, &mockVies{}, nil)

	req := authedRequest(http.MethodGet, "/api/calendario", nil)
	w := httptest.NewRecorder()
	handler.GetCalendarioHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)

	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, string(body), "Em curso")
	require.NotContains(t, string(body), "Sem prazo")
}

func TestGetCalendarioHandlerInvalidMonth(t *testing.T) {
	handler := handlers.NewHandler(newMockStorage(), &mockVies{}, nil)

	req := authedRequest(http.MethodGet, "/api/calendario?month=13", nil)
	w := httptest.NewRecorder()
	handler.GetCalendarioHandler(w, req)

	require.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
}

func TestGetDistritosHandler(t *testing.T) {
	handler := handlers.NewHandler(newMockStorage(), &mockVies{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/distritos", nil)
	w := httptest.NewRecorder()
	handler.GetDistritosHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)

	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, string(body), "Porto")
}
