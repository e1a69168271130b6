package postgres

import (
	"context"
	"errors"

	customErrors "github.com/Miraines/MoonyAndStarry/user-service/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/user-service/internal/domain/auth/model"
	"github.com/jackc/pgx/v5/pgconn"
	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const uniqueViolation = "23505"

type userRecord struct {
	ID       int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Username string `gorm:"column:username"`
	FullName string `gorm:"column:full-name"`
	Password string `gorm:"column:password"`
}

func (userRecord) TableName() string { return "users" }

func (r userRecord) toModel() model.User {
	return model.User{ID: r.ID, Username: r.Username, FullName: r.FullName, PasswordHash: r.Password}
}

// GormConfig is shared by Open and the tests so both run the same statements.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError:         true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Warn),
	}
}

func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(gormpg.Open(dsn), GormConfig())
}

type PostgresUserRepo struct {
	db *gorm.DB
}

func NewPostgresUserRepo(db *gorm.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

func (p *PostgresUserRepo) CreateUser(ctx context.Context, u model.NewUser) (model.User, error) {
	rec := userRecord{Username: u.Username, FullName: u.FullName, Password: u.PasswordHash}
	if err := p.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isDuplicate(err) {
			return model.User{}, customErrors.ErrConflict
		}
		return model.User{}, customErrors.WrapInternal(err, "CreateUser")
	}
	return rec.toModel(), nil
}

func (p *PostgresUserRepo) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	var rec userRecord
	res := p.db.WithContext(ctx).Where("username = ?", username).First(&rec)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.User{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.User{}, customErrors.WrapInternal(err, "GetUserByUsername")
	}
	return rec.toModel(), nil
}

func (p *PostgresUserRepo) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return customErrors.WrapInternal(err, "Ping")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return customErrors.WrapInternal(err, "Ping")
	}
	return nil
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
