package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"concursos/models"
)

type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

// Concursos

const concursoColumns = `
    id, n_procedimento, titulo, entidade, nipc, data_envio, prazo_propostas,
    preco_base, prazo_execucao, urgente, distrito, concelho, monofator,
    multifator, url_apresentacao, plataforma, fonte_pdf`

// GetConcursos returns the full collection ordered by publish date descending.
// A non-empty search narrows it server-side with a case-insensitive substring
// match on the title or the issuing entity.
func (s *Storage) GetConcursos(ctx context.Context, search string) ([]models.Concurso, error) {
	query := `SELECT` + concursoColumns + ` FROM concursos`
	var args []interface{}
	if search != "" {
		query += ` WHERE titulo ILIKE $1 OR entidade ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY data_envio DESC`

	concursos := []models.Concurso{}
	if err := s.db.SelectContext(ctx, &concursos, query, args...); err != nil {
		return nil, err
	}
	return concursos, nil
}

func (s *Storage) GetConcurso(ctx context.Context, id string) (*models.Concurso, error) {
	c := &models.Concurso{}
	query := `SELECT` + concursoColumns + ` FROM concursos WHERE id = $1`
	err := s.db.GetContext(ctx, c, query, id)
	return c, err
}

// GetConcursosByIDs loads the given concursos ordered by proposal deadline.
// Unknown ids are silently absent from the result.
func (s *Storage) GetConcursosByIDs(ctx context.Context, ids []string) ([]models.Concurso, error) {
	if len(ids) == 0 {
		return []models.Concurso{}, nil
	}
	query := `SELECT` + concursoColumns + `
        FROM concursos
        WHERE id = ANY($1)
        ORDER BY prazo_propostas ASC NULLS LAST`
	concursos := []models.Concurso{}
	if err := s.db.SelectContext(ctx, &concursos, query, pq.Array(ids)); err != nil {
		return nil, err
	}
	return concursos, nil
}

func (s *Storage) GetConcursosByNIPC(ctx context.Context, nipc string) ([]models.Concurso, error) {
	query := `SELECT` + concursoColumns + `
        FROM concursos
        WHERE nipc = $1
        ORDER BY data_envio DESC`
	concursos := []models.Concurso{}
	if err := s.db.SelectContext(ctx, &concursos, query, nipc); err != nil {
		return nil, err
	}
	return concursos, nil
}

// Entidades

func (s *Storage) GetEntidades(ctx context.Context) ([]models.Entidade, error) {
	entidades := []models.Entidade{}
	query := `SELECT nipc, entidade FROM entidades ORDER BY entidade ASC`
	err := s.db.SelectContext(ctx, &entidades, query)
	return entidades, err
}

func (s *Storage) GetEntidade(ctx context.Context, nipc string) (*models.Entidade, error) {
	e := &models.Entidade{}
	query := `SELECT nipc, entidade FROM entidades WHERE nipc = $1`
	err := s.db.GetContext(ctx, e, query, nipc)
	return e, err
}

func (s *Storage) GetEntidadesByNIPCs(ctx context.Context, nipcs []string) ([]models.Entidade, error) {
	if len(nipcs) == 0 {
		return []models.Entidade{}, nil
	}
	entidades := []models.Entidade{}
	query := `SELECT nipc, entidade FROM entidades WHERE nipc = ANY($1) ORDER BY entidade ASC`
	err := s.db.SelectContext(ctx, &entidades, query, pq.Array(nipcs))
	return entidades, err
}

// InsertEntidade registers an entity discovered through a tax-id lookup.
// An already known NIPC is not an error.
func (s *Storage) InsertEntidade(ctx context.Context, e *models.Entidade) error {
	query := `
        INSERT INTO entidades (nipc, entidade)
        VALUES ($1, $2)
        ON CONFLICT (nipc) DO NOTHING`
	_, err := s.db.ExecContext(ctx, query, e.NIPC, e.Entidade)
	return err
}

// User settings

// GetUserSettings returns the settings document for a user. A missing row is
// the normal "nothing saved yet" case and yields an empty document, not an
// error.
func (s *Storage) GetUserSettings(ctx context.Context, userID string) (*models.UserSettings, error) {
	settings := &models.UserSettings{}
	query := `SELECT user_id, favoritos, entidades FROM users_settings WHERE user_id = $1`
	err := s.db.GetContext(ctx, settings, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.UserSettings{UserID: userID}, nil
	}
	return settings, err
}

func (s *Storage) SaveFavoritos(ctx context.Context, userID string, favoritos []string) error {
	query := `
        INSERT INTO users_settings (user_id, favoritos)
        VALUES ($1, $2)
        ON CONFLICT (user_id) DO UPDATE SET favoritos = EXCLUDED.favoritos`
	_, err := s.db.ExecContext(ctx, query, userID, pq.Array(favoritos))
	return err
}

func (s *Storage) SaveEntidadesSeguidas(ctx context.Context, userID string, nipcs []string) error {
	query := `
        INSERT INTO users_settings (user_id, entidades)
        VALUES ($1, $2)
        ON CONFLICT (user_id) DO UPDATE SET entidades = EXCLUDED.entidades`
	_, err := s.db.ExecContext(ctx, query, userID, pq.Array(nipcs))
	return err
}

// Filtros

func (s *Storage) CreateFiltro(ctx context.Context, f *models.Filtro) error {
	query := `
        INSERT INTO concurso_filtros (id, user_id, nome, distrito, municipios, keywords)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at`
	return s.db.QueryRowContext(ctx, query,
		f.ID, f.UserID, f.Nome, f.Distrito, f.Municipios, f.Keywords).
		Scan(&f.CreatedAt)
}

// UpdateFiltro edits a filter in place, keeping its identifier.
func (s *Storage) UpdateFiltro(ctx context.Context, f *models.Filtro) error {
	query := `
        UPDATE concurso_filtros
        SET nome = $1, distrito = $2, municipios = $3, keywords = $4
        WHERE id = $5 AND user_id = $6`
	_, err := s.db.ExecContext(ctx, query,
		f.Nome, f.Distrito, f.Municipios, f.Keywords, f.ID, f.UserID)
	return err
}

func (s *Storage) DeleteFiltro(ctx context.Context, userID, id string) error {
	query := `DELETE FROM concurso_filtros WHERE id = $1 AND user_id = $2`
	_, err := s.db.ExecContext(ctx, query, id, userID)
	return err
}

func (s *Storage) GetFiltro(ctx context.Context, userID, id string) (*models.Filtro, error) {
	f := &models.Filtro{}
	query := `
        SELECT id, user_id, nome, distrito, municipios, keywords, created_at
        FROM concurso_filtros
        WHERE id = $1 AND user_id = $2`
	err := s.db.GetContext(ctx, f, query, id, userID)
	return f, err
}

func (s *Storage) GetFiltrosByUser(ctx context.Context, userID string) ([]models.Filtro, error) {
	filtros := []models.Filtro{}
	query := `
        SELECT id, user_id, nome, distrito, municipios, keywords, created_at
        FROM concurso_filtros
        WHERE user_id = $1
        ORDER BY created_at DESC`
	err := s.db.SelectContext(ctx, &filtros, query, userID)
	return filtros, err
}

// GetFiltrosByIDs resolves the caller's selected filters. Ids belonging to
// another user are dropped, not an error.
func (s *Storage) GetFiltrosByIDs(ctx context.Context, userID string, ids []string) ([]models.Filtro, error) {
	if len(ids) == 0 {
		return []models.Filtro{}, nil
	}
	filtros := []models.Filtro{}
	query := `
        SELECT id, user_id, nome, distrito, municipios, keywords, created_at
        FROM concurso_filtros
        WHERE user_id = $1 AND id = ANY($2)`
	err := s.db.SelectContext(ctx, &filtros, query, userID, pq.Array(ids))
	return filtros, err
}

// Reference data

func (s *Storage) GetDistritos(ctx context.Context) ([]string, error) {
	distritos := []string{}
	query := `SELECT DISTINCT distrito FROM municipios ORDER BY distrito ASC`
	err := s.db.SelectContext(ctx, &distritos, query)
	return distritos, err
}

// GetMunicipios lists municipalities, optionally narrowed to one district.
func (s *Storage) GetMunicipios(ctx context.Context, distrito string) ([]string, error) {
	municipios := []string{}
	query := `SELECT DISTINCT municipio FROM municipios`
	var args []interface{}
	if distrito != "" {
		query += ` WHERE distrito = $1`
		args = append(args, distrito)
	}
	query += ` ORDER BY municipio ASC`
	err := s.db.SelectContext(ctx, &municipios, query, args...)
	return municipios, err
}
