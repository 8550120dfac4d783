package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	dbmodels "github.com/gartstein/billy/internal/company/db/models"
	e "github.com/gartstein/billy/internal/company/errors"
	"github.com/gartstein/billy/internal/company/models"
	"github.com/gartstein/billy/internal/pkg/keygen"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"moul.io/zapgorm2"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultMaxRetries = 5
)

// Repository stores companies. It holds either the root connection or,
// inside WithTransaction, the transaction handle.
type Repository struct {
	db     *gorm.DB
	clock  clockwork.Clock
	keys   keygen.Generator
	logger *zap.Logger
}

type Config struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SSLMode    string
	Path       string
	MaxRetries uint64
}

// Option customises a Repository.
type Option func(*Repository)

// WithClock sets the time source for created_at and updated_at.
func WithClock(clock clockwork.Clock) Option {
	return func(r *Repository) {
		r.clock = clock
	}
}

// WithKeyGenerator sets the generator for GUIDs and API keys.
func WithKeyGenerator(keys keygen.Generator) Option {
	return func(r *Repository) {
		r.keys = keys
	}
}

// WithLogger sets the logger used for connection and query logging.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Repository) {
		r.logger = logger
	}
}

func NewRepository(cfg *Config, opts ...Option) (*Repository, error) {
	r := &Repository{
		clock:  clockwork.NewRealClock(),
		keys:   keygen.Default,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("repository")

	dialector, err := cfg.dialector()
	if err != nil {
		return nil, err
	}

	gormLogger := zapgorm2.New(r.logger.Named("gorm"))
	gormLogger.IgnoreRecordNotFoundError = true

	gormCfg := &gorm.Config{
		Logger:         gormLogger,
		NowFunc:        r.now,
		TranslateError: true,
	}

	retries := cfg.MaxRetries
	if retries == 0 {
		retries = defaultMaxRetries
	}

	var db *gorm.DB
	err = backoff.Retry(func() error {
		var openErr error
		db, openErr = gorm.Open(dialector, gormCfg)
		if openErr != nil {
			r.logger.Warn("database not ready, retrying", zap.Error(openErr))
		}
		return openErr
	}, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), retries))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == DriverSQLite && strings.Contains(cfg.Path, ":memory:") {
		// every connection to :memory: opens a fresh database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access database pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&dbmodels.Company{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	r.db = db
	return r, nil
}

func (cfg *Config) dialector() (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverPostgres, "":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
		return postgres.Open(dsn), nil
	case DriverSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("%w: sqlite path required", e.ErrInvalidInput)
		}
		return sqlite.Open(cfg.Path), nil
	default:
		return nil, fmt.Errorf("%w: unsupported database driver %q", e.ErrInvalidInput, cfg.Driver)
	}
}

func (r *Repository) now() time.Time {
	return r.clock.Now().UTC()
}

// LookupOption tunes a company lookup.
type LookupOption func(*lookup)

type lookup struct {
	includeDeleted bool
	mustExist      bool
	forUpdate      bool
}

// IncludeDeleted makes soft-deleted companies visible to the lookup.
func IncludeDeleted() LookupOption {
	return func(l *lookup) {
		l.includeDeleted = true
	}
}

// MustExist turns a missing company into ErrNotFound instead of a nil result.
func MustExist() LookupOption {
	return func(l *lookup) {
		l.mustExist = true
	}
}

// ForUpdate locks the matched row until the surrounding transaction ends.
// SQLite has no row locks and serialises writers instead.
func ForUpdate() LookupOption {
	return func(l *lookup) {
		l.forUpdate = true
	}
}

// GetCompanyByGUID returns the company with the given guid. A missing or
// soft-deleted company yields (nil, nil) unless the options say otherwise.
func (r *Repository) GetCompanyByGUID(ctx context.Context, guid string, opts ...LookupOption) (*models.Company, error) {
	return r.getCompany(ctx, "guid = ?", guid, opts)
}

// GetCompanyByAPIKey behaves like GetCompanyByGUID but matches the API key.
func (r *Repository) GetCompanyByAPIKey(ctx context.Context, apiKey string, opts ...LookupOption) (*models.Company, error) {
	return r.getCompany(ctx, "api_key = ?", apiKey, opts)
}

func (r *Repository) getCompany(ctx context.Context, query string, arg interface{}, opts []LookupOption) (*models.Company, error) {
	var l lookup
	for _, opt := range opts {
		opt(&l)
	}

	tx := r.db.WithContext(ctx)
	if l.includeDeleted {
		tx = tx.Unscoped()
	}
	if l.forUpdate {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var row dbmodels.Company
	err := tx.Where(query, arg).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if l.mustExist {
				return nil, e.ErrNotFound
			}
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return row.ToDomain(), nil
}

// ListCompanies returns companies ordered by creation time.
func (r *Repository) ListCompanies(ctx context.Context, opts ...LookupOption) ([]*models.Company, error) {
	var l lookup
	for _, opt := range opts {
		opt(&l)
	}

	tx := r.db.WithContext(ctx)
	if l.includeDeleted {
		tx = tx.Unscoped()
	}

	var rows []dbmodels.Company
	if err := tx.Order("created_at, guid").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}

	companies := make([]*models.Company, 0, len(rows))
	for i := range rows {
		companies = append(companies, rows[i].ToDomain())
	}
	return companies, nil
}

// CreateCompany inserts a new company and returns its guid. The API key is
// generated when the caller leaves it empty.
func (r *Repository) CreateCompany(ctx context.Context, company *models.CompanyCreate) (string, error) {
	if company == nil || company.ProcessorKey == "" {
		return "", fmt.Errorf("%w: processor key required", e.ErrInvalidInput)
	}

	apiKey := company.APIKey
	if apiKey == "" {
		var err error
		apiKey, err = r.keys.APIKey()
		if err != nil {
			return "", fmt.Errorf("failed to generate api key: %w", err)
		}
	}

	now := r.now()
	row := &dbmodels.Company{
		GUID:         r.keys.GUID(models.CompanyGUIDPrefix),
		Name:         company.Name,
		ProcessorKey: company.ProcessorKey,
		APIKey:       apiKey,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	result := r.db.WithContext(ctx).Create(row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return "", e.ErrDuplicateKey
		}
		return "", fmt.Errorf("failed to create company: %w", result.Error)
	}
	return row.GUID, nil
}

// UpdateCompany applies the supplied fields, deleted companies included,
// and always refreshes updated_at.
func (r *Repository) UpdateCompany(ctx context.Context, update *models.CompanyUpdate) error {
	if update == nil {
		return fmt.Errorf("%w: nil update", e.ErrInvalidInput)
	}
	if _, err := r.GetCompanyByGUID(ctx, update.GUID, IncludeDeleted(), MustExist()); err != nil {
		return err
	}

	values := map[string]interface{}{
		"updated_at": r.now(),
	}
	if update.Name != nil {
		values["name"] = *update.Name
	}
	if update.ProcessorKey != nil {
		values["processor_key"] = *update.ProcessorKey
	}
	if update.APIKey != nil {
		values["api_key"] = *update.APIKey
	}

	result := r.db.WithContext(ctx).Unscoped().Model(&dbmodels.Company{}).
		Where("guid = ?", update.GUID).
		Updates(values)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return e.ErrDuplicateKey
		}
		return fmt.Errorf("failed to update company: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// DeleteCompany flags the company as deleted. Deleting an already deleted
// company succeeds without changes.
func (r *Repository) DeleteCompany(ctx context.Context, guid string) error {
	company, err := r.GetCompanyByGUID(ctx, guid, IncludeDeleted(), MustExist())
	if err != nil {
		return err
	}
	if company.Deleted {
		return nil
	}

	result := r.db.WithContext(ctx).Delete(&dbmodels.Company{}, "guid = ?", guid)
	if result.Error != nil {
		return fmt.Errorf("failed to delete company: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// WithTransaction runs fn inside a transaction. The transaction commits
// when fn returns nil and rolls back when it returns an error or panics.
func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{
			db:     tx,
			clock:  r.clock,
			keys:   r.keys,
			logger: r.logger,
		})
	})
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
