package router

import (
	"log/slog"
	"net/http"

	"taskbill/internal/api/handler"
	"taskbill/internal/api/middleware"
	"taskbill/internal/api/util"
	"taskbill/internal/core/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

// Dependencies is everything the HTTP layer needs from the process.
type Dependencies struct {
	Memberships   service.MembershipService
	Invitations   service.InvitationService
	Approvals     service.ApprovalService
	Organizations service.OrganizationService
	Provisioning  service.ProvisioningService
	Projects      service.ProjectService
	Tasks         service.TaskService
	Users         service.UserService
	JWT           *util.JWTService
	AutoProvision bool
	CORSOrigins   []string
	Logger        *slog.Logger
}

func NewRouter(deps Dependencies) http.Handler {
	authHandler := handler.NewAuthHandler(deps.Approvals, deps.Users, deps.Invitations, deps.Provisioning,
		deps.JWT, deps.AutoProvision, deps.Logger)
	userHandler := handler.NewUserHandler(deps.Users, deps.Approvals, deps.Memberships)
	orgHandler := handler.NewOrganizationHandler(deps.Organizations, deps.Memberships)
	invitationHandler := handler.NewInvitationHandler(deps.Invitations)
	projectHandler := handler.NewProjectHandler(deps.Projects)
	taskHandler := handler.NewTaskHandler(deps.Tasks)
	authMiddleware := middleware.NewAuthMiddleware(deps.JWT, deps.Memberships, deps.Logger)

	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		util.JSON(w, r, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Get("/invitations/{token}", authHandler.ValidateInvitation)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/me", userHandler.Me)
			r.Patch("/me", userHandler.UpdateMe)

			r.Route("/users/{userID}", func(r chi.Router) {
				r.Get("/", userHandler.GetUser)
				r.Delete("/", userHandler.DeleteUser)
				r.Post("/approve", userHandler.Approve)
				r.Put("/role", userHandler.ChangeRole)
			})

			r.Get("/organizations", orgHandler.List)
			r.Post("/organizations", orgHandler.Create)
			r.Route("/organizations/{orgID}", func(r chi.Router) {
				r.Get("/", orgHandler.Get)
				r.Put("/", orgHandler.Update)
				r.Delete("/", orgHandler.Delete)

				r.Get("/members", orgHandler.ListMembers)
				r.Put("/members/{userID}", orgHandler.PutMember)
				r.Delete("/members/{userID}", orgHandler.RemoveMember)

				r.Get("/invitations", invitationHandler.List)
				r.Post("/invitations", invitationHandler.Issue)

				r.Post("/projects", projectHandler.Create)
			})

			r.Post("/invitations/{token}/deactivate", invitationHandler.Deactivate)
			r.Delete("/invitations/{token}", invitationHandler.Delete)

			r.Get("/projects", projectHandler.List)
			r.Route("/projects/{projectID}", func(r chi.Router) {
				r.Get("/", projectHandler.Get)
				r.Put("/", projectHandler.Update)
				r.Delete("/", projectHandler.Delete)
				r.Put("/members/{userID}", projectHandler.AssignMember)
				r.Delete("/members/{userID}", projectHandler.UnassignMember)

				r.Get("/tasks", taskHandler.ListByProject)
				r.Post("/tasks", taskHandler.Create)
			})

			r.Get("/tasks", taskHandler.List)
			r.Route("/tasks/{taskID}", func(r chi.Router) {
				r.Get("/", taskHandler.Get)
				r.Patch("/", taskHandler.Update)
				r.Delete("/", taskHandler.Delete)
			})
		})
	})

	return r
}
