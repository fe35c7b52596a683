package handlers

import (
	"context"

	"concursos/models"
)

type StorageInterface interface {
	GetConcursos(ctx context.Context, search string) ([]models.Concurso, error)
	GetConcurso(ctx context.Context, id string) (*models.Concurso, error)
	GetConcursosByIDs(ctx context.Context, ids []string) ([]models.Concurso, error)
	GetConcursosByNIPC(ctx context.Context, nipc string) ([]models.Concurso, error)

	GetEntidades(ctx context.Context) ([]models.Entidade, error)
	GetEntidade(ctx context.Context, nipc string) (*models.Entidade, error)
	GetEntidadesByNIPCs(ctx context.Context, nipcs []string) ([]models.Entidade, error)
	InsertEntidade(ctx context.Context, e *models.Entidade) error

	GetUserSettings(ctx context.Context, userID string) (*models.UserSettings, error)
	SaveFavoritos(ctx context.Context, userID string, favoritos []string) error
	SaveEntidadesSeguidas(ctx context.Context, userID string, nipcs []string) error

	CreateFiltro(ctx context.Context, f *models.Filtro) error
	UpdateFiltro(ctx context.Context, f *models.Filtro) error
	DeleteFiltro(ctx context.Context, userID, id string) error
	GetFiltro(ctx context.Context, userID, id string) (*models.Filtro, error)
	GetFiltrosByUser(ctx context.Context, userID string) ([]models.Filtro, error)
	GetFiltrosByIDs(ctx context.Context, userID string, ids []string) ([]models.Filtro, error)

	GetDistritos(ctx context.Context) ([]string, error)
	GetMunicipios(ctx context.Context, distrito string) ([]string, error)
}
