package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"concursos/db"
	"concursos/db/migrations"
	"concursos/internal/auth"
	"concursos/internal/config"
	"concursos/internal/handlers"
	"concursos/internal/vies"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	dbConn, err := sqlx.Connect("postgres", cfg.PostgresConn)
	if err != nil {
		logger.Fatal("connect to database", zap.Error(err))
	}
	defer dbConn.Close()

	if err := migrations.Run(dbConn.DB); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}

	store := db.NewStorage(dbConn)
	viesClient := vies.NewClient(cfg.ViesBaseURL)
	h := handlers.NewHandler(store, viesClient, logger)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Verify(cfg.JWTSecret))

		r.Get("/ping", h.PingHandler)

		// listings and reference data, available to guests
		r.Get("/concursos", h.GetConcursosHandler)
		r.Get("/concursos/{concursoId}", h.GetConcursoHandler)
		r.Get("/entidades", h.GetEntidadesHandler)
		r.Get("/entidades/{nipc}/concursos", h.GetEntidadeConcursosHandler)
		r.Get("/distritos", h.GetDistritosHandler)
		r.Get("/municipios", h.GetMunicipiosHandler)
		r.Get("/validator", h.ValidatorHandler)

		// user-scoped operations
		r.Group(func(r chi.Router) {
			r.Use(auth.Require)

			r.Get("/favoritos", h.GetFavoritosHandler)
			r.Post("/favoritos/{concursoId}/toggle", h.ToggleFavoritoHandler)
			r.Get("/favoritos/concursos", h.GetFavoritosConcursosHandler)
			r.Get("/calendario", h.GetCalendarioHandler)

			r.Get("/filtros", h.GetFiltrosHandler)
			r.Post("/filtros/new", h.CreateFiltroHandler)
			r.Patch("/filtros/{filtroId}/edit", h.EditFiltroHandler)
			r.Delete("/filtros/{filtroId}", h.DeleteFiltroHandler)

			r.Get("/entidades/seguidas", h.GetEntidadesSeguidasHandler)
			r.Post("/entidades/{nipc}/follow", h.FollowEntidadeHandler)
			r.Delete("/entidades/{nipc}/follow", h.UnfollowEntidadeHandler)
			r.Post("/entidades/lookup", h.LookupEntidadeHandler)
		})
	})

	logger.Info("starting server", zap.String("address", cfg.ServerAddress))
	if err := http.ListenAndServe(cfg.ServerAddress, r); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
