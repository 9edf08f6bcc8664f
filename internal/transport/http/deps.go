package http

import (
	"context"

	"github.com/go-rental-api/internal/application/dashboard"
	"github.com/go-rental-api/internal/application/favorite"
	"github.com/go-rental-api/internal/application/messaging"
	"github.com/go-rental-api/internal/application/notification"
	"github.com/go-rental-api/internal/application/payment"
	"github.com/go-rental-api/internal/application/property"
	"github.com/go-rental-api/internal/application/review"
	"github.com/go-rental-api/internal/application/user"
	"github.com/go-rental-api/internal/config"
	"github.com/go-rental-api/internal/infrastructure/chapa"
	"github.com/go-rental-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-rental-api/internal/infrastructure/jwt"
	s3infra "github.com/go-rental-api/internal/infrastructure/s3"
	"github.com/go-rental-api/internal/infrastructure/smtp"
	"github.com/go-rental-api/internal/infrastructure/sns"
)

// Deps holds all infrastructure dependencies for the router. A nil Mailer or
// SMSSender disables that notification channel.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	PropertyRepo     *dynamo.PropertyRepo
	ImageRepo        *dynamo.ImageRepo
	NotificationRepo *dynamo.NotificationRepo
	PaymentRepo      *dynamo.PaymentRepo
	FavoriteRepo     *dynamo.FavoriteRepo
	ViewRepo         *dynamo.ViewRepo
	RecentRepo       *dynamo.RecentlyViewedRepo
	ReviewRepo       *dynamo.ReviewRepo
	ConversationRepo *dynamo.ConversationRepo
	MessageRepo      *dynamo.MessageRepo
	S3Store          *s3infra.Store
	Mailer           smtp.Mailer
	SMSSender        sns.SMSSender
	Gateway          *chapa.Client
	JWTProvider      *jwtinfra.Provider
	Jobs             JobRunner
}

// JobRunner triggers the scheduled sweeps on demand.
type JobRunner interface {
	RunJob(ctx context.Context, name string) (int, error)
	Jobs() []string
}

// Services is the application layer wired over Deps.
type Services struct {
	Notifications notification.Service
	Users         user.Service
	Properties    property.Service
	Payments      payment.Service
	Favorites     favorite.Service
	Reviews       review.Service
	Messaging     messaging.Service
	Dashboard     dashboard.Service
}

// NewServices builds every application service. The dispatcher is shared so
// all notifications go through the same admin resolver and channels.
func NewServices(cfg *config.Config, deps *Deps) *Services {
	var channels []notification.Channel
	if cfg.SMSEnabled && deps.SMSSender != nil {
		channels = append(channels, notification.NewSMSChannel(deps.SMSSender))
	}
	if cfg.EmailEnabled && deps.Mailer != nil {
		channels = append(channels, notification.NewEmailChannel(deps.Mailer, cfg.PublicBaseURL))
	}
	dispatcher := notification.NewDispatcher(notification.DispatcherDeps{
		Store:    deps.NotificationRepo,
		Admins:   notification.NewAdminResolver(cfg.AdminUserID, deps.UserRepo),
		Users:    deps.UserRepo,
		Channels: channels,
	})
	feed := notification.NewService(deps.NotificationRepo)

	props := property.NewService(property.ServiceDeps{
		PropertyRepo: deps.PropertyRepo,
		ImageRepo:    deps.ImageRepo,
		Objects:      deps.S3Store,
		ViewRepo:     deps.ViewRepo,
		RecentRepo:   deps.RecentRepo,
		FavoriteRepo: deps.FavoriteRepo,
		UserRepo:     deps.UserRepo,
		Notifier:     dispatcher,
		ImageURLTTL:  cfg.ImageURLTTL,
	})
	inbox := messaging.NewService(messaging.ServiceDeps{
		ConversationRepo: deps.ConversationRepo,
		MessageRepo:      deps.MessageRepo,
		Objects:          deps.S3Store,
		PropertyRepo:     deps.PropertyRepo,
		UserRepo:         deps.UserRepo,
		Feed:             feed,
		Notifier:         dispatcher,
		AttachmentTTL:    cfg.ImageURLTTL,
	})

	return &Services{
		Notifications: feed,
		Users: user.NewService(user.ServiceDeps{
			UserRepo:    deps.UserRepo,
			Objects:     deps.S3Store,
			JWTProvider: deps.JWTProvider,
			Notifier:    dispatcher,
		}),
		Properties: props,
		Payments: payment.NewService(payment.ServiceDeps{
			PaymentRepo:   deps.PaymentRepo,
			PropertyRepo:  deps.PropertyRepo,
			Featured:      props,
			UserRepo:      deps.UserRepo,
			Gateway:       deps.Gateway,
			Notifier:      dispatcher,
			WeeklyPrice:   cfg.WeeklyPrice,
			MonthlyPrice:  cfg.MonthlyPrice,
			Currency:      cfg.Currency,
			PublicBaseURL: cfg.PublicBaseURL,
		}),
		Favorites: favorite.NewService(favorite.ServiceDeps{
			FavoriteRepo: deps.FavoriteRepo,
			PropertyRepo: deps.PropertyRepo,
			UserRepo:     deps.UserRepo,
			Notifier:     dispatcher,
		}),
		Reviews: review.NewService(review.ServiceDeps{
			ReviewRepo:   deps.ReviewRepo,
			PropertyRepo: deps.PropertyRepo,
			UserRepo:     deps.UserRepo,
			Notifier:     dispatcher,
		}),
		Messaging: inbox,
		Dashboard: dashboard.NewService(dashboard.ServiceDeps{
			PropertyRepo: deps.PropertyRepo,
			ViewRepo:     deps.ViewRepo,
			FavoriteRepo: deps.FavoriteRepo,
			RecentRepo:   deps.RecentRepo,
			Inbox:        inbox,
			Feed:         feed,
		}),
	}
}
