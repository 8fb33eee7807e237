// Package container holds the constructed infrastructure shared by the
// router modules and builds the account service from it.
package container

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/otp-auth-service/config"
	"github.com/oksasatya/otp-auth-service/internal/application"
	"github.com/oksasatya/otp-auth-service/internal/domain/repository"
	"github.com/oksasatya/otp-auth-service/internal/infrastructure/postgres"
	"github.com/oksasatya/otp-auth-service/internal/infrastructure/search"
	gcsstore "github.com/oksasatya/otp-auth-service/internal/infrastructure/storage"
	"github.com/oksasatya/otp-auth-service/pkg/helpers"
	"github.com/oksasatya/otp-auth-service/pkg/mailer"
)

// Container is filled by cmd/main.go. Nil clients disable the features
// that depend on them.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger

	PGPool  *pgxpool.Pool
	Redis   *redis.Client
	GCS     *storage.Client
	ES      *elasticsearch.Client
	Rabbit  *helpers.RabbitQueue
	Mailgun *mailer.Mailgun
	JWT     *helpers.JWTManager

	// Accounts and OTPNotifier override the defaults built from the clients above.
	Accounts    repository.AccountRepository
	OTPNotifier application.Notifier
}

// AccountRepository returns the account store, Postgres unless overridden.
func (c *Container) AccountRepository() repository.AccountRepository {
	if c.Accounts != nil {
		return c.Accounts
	}
	return postgres.NewAccountRepository(c.PGPool)
}

// Notifier picks the OTP delivery for the configured NOTIFY_MODE. A mode
// whose client is missing degrades to logging the code.
func (c *Container) Notifier() application.Notifier {
	if c.OTPNotifier != nil {
		return c.OTPNotifier
	}
	switch c.Config.NotifyMode {
	case config.NotifyQueue:
		if c.Rabbit != nil {
			return mailer.NewQueueNotifier(c.Rabbit, c.Config, application.OTPTTL)
		}
		c.Logger.Warn("NOTIFY_MODE=queue but RabbitMQ is unavailable; logging codes instead")
	case config.NotifyDirect:
		if c.Mailgun != nil {
			return mailer.NewDirectNotifier(c.Mailgun, c.Config, application.OTPTTL)
		}
		c.Logger.Warn("NOTIFY_MODE=direct but Mailgun is not configured; logging codes instead")
	}
	return mailer.NewLogNotifier(c.Logger)
}

// AccountService wires the lifecycle service with the optional directory
// index and avatar store.
func (c *Container) AccountService() *application.Service {
	opts := []application.Option{
		application.WithLogger(c.Logger),
		application.WithMinPasswordLength(c.Config.PasswordMinLength),
	}
	if c.ES != nil && c.Config.ESAccountsIndex != "" {
		opts = append(opts, application.WithIndex(search.NewElasticIndex(c.ES, c.Config.ESAccountsIndex)))
	}
	if c.GCS != nil && c.Config.GCSBucket != "" {
		opts = append(opts, application.WithAvatarStore(gcsstore.NewGCSAvatarStore(c.GCS, c.Config.GCSBucket)))
	}
	return application.NewService(
		c.AccountRepository(),
		helpers.NewBcryptHasher(0),
		c.JWT,
		c.Notifier(),
		opts...,
	)
}
