package mailer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/coffeemorning/cmc-backend/pkg/db/models"
	"github.com/coffeemorning/cmc-backend/pkg/enums"
)

// TemplateRepository defines persistence operations for email templates.
type TemplateRepository interface {
	ListActive(ctx context.Context) ([]models.EmailTemplate, error)
}

type templateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository builds a template repository bound to the provided DB.
func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) ListActive(ctx context.Context) ([]models.EmailTemplate, error) {
	var tpls []models.EmailTemplate
	err := r.db.WithContext(ctx).
		Where("is_active = TRUE").
		Find(&tpls).Error
	if err != nil {
		return nil, err
	}
	return tpls, nil
}

// templateCache keeps templates in memory and refreshes them lazily so each
// send does not hit the database.
type templateCache struct {
	repo      TemplateRepository
	ttl       time.Duration
	mu        sync.RWMutex
	templates map[enums.TemplateType]models.EmailTemplate
	loadedAt  time.Time
	now       func() time.Time
}

func newTemplateCache(repo TemplateRepository, ttl time.Duration) *templateCache {
	return &templateCache{
		repo:      repo,
		ttl:       ttl,
		templates: map[enums.TemplateType]models.EmailTemplate{},
		now:       time.Now,
	}
}

func (c *templateCache) get(ctx context.Context, t enums.TemplateType) (*models.EmailTemplate, error) {
	c.mu.RLock()
	fresh := !c.loadedAt.IsZero() && c.now().Sub(c.loadedAt) < c.ttl
	tpl, ok := c.templates[t]
	c.mu.RUnlock()
	if fresh && ok {
		return &tpl, nil
	}

	if err := c.refresh(ctx); err != nil {
		// Serve stale templates when the refresh fails and we have one.
		if ok {
			return &tpl, nil
		}
		if def, found := defaultTemplate(t); found {
			return def, nil
		}
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	tpl, ok = c.templates[t]
	if !ok {
		return c.fallback(t)
	}
	return &tpl, nil
}

// fallback serves the compiled-in template when the store has no active row
// for the type.
func (c *templateCache) fallback(t enums.TemplateType) (*models.EmailTemplate, error) {
	if def, found := defaultTemplate(t); found {
		return def, nil
	}
	return nil, fmt.Errorf("no template registered for type %s", t)
}

func (c *templateCache) refresh(ctx context.Context) error {
	tpls, err := c.repo.ListActive(ctx)
	if err != nil {
		return err
	}
	next := make(map[enums.TemplateType]models.EmailTemplate, len(tpls))
	for _, tpl := range tpls {
		next[tpl.Type] = tpl
	}
	c.mu.Lock()
	c.templates = next
	c.loadedAt = c.now()
	c.mu.Unlock()
	return nil
}

