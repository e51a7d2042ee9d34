package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"linkedlens/internal/models"
)

// DefaultCategories is written to the settings store the first time the list is found empty.
var DefaultCategories = []models.Category{
	{ID: "technology", Name: "Technology", Description: "Software, hardware, AI, engineering and product announcements"},
	{ID: "career", Name: "Career", Description: "Job changes, hiring, job searching, promotions and career advice"},
	{ID: "business", Name: "Business", Description: "Company news, funding, markets, sales and entrepreneurship"},
	{ID: "life-update", Name: "Life Update", Description: "Personal milestones, celebrations, anniversaries and reflections"},
	{ID: "education", Name: "Education", Description: "Courses, certifications, learning resources and academic work"},
	{ID: "other", Name: "Other", Description: "Anything that does not fit the other categories"},
}

// CategoryStore reads and writes the ordered category list. Every List call goes back
// to the settings store, so edits made elsewhere are seen by the next classification.
type CategoryStore struct {
	kv           KeyValueStore
	seedDefaults bool
}

func NewCategoryStore(kv KeyValueStore, seedDefaults bool) *CategoryStore {
	return &CategoryStore{kv: kv, seedDefaults: seedDefaults}
}

// List returns the configured categories in order. Entries without a name are dropped.
// An empty stored list is replaced by DefaultCategories when seeding is enabled.
func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	stored, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if len(stored) > 0 || !s.seedDefaults {
		return stored, nil
	}

	defaults := make([]models.Category, len(DefaultCategories))
	copy(defaults, DefaultCategories)
	if err := s.Save(ctx, defaults); err != nil {
		log.Warnf("Could not persist default categories, using them for this session only: %v", err)
	} else {
		log.Infof("Initialized %d default categories", len(defaults))
	}
	return defaults, nil
}

func (s *CategoryStore) load(ctx context.Context) ([]models.Category, error) {
	values, err := s.kv.Get(ctx, KeyCategories)
	if err != nil {
		return nil, fmt.Errorf("read categories: %w", err)
	}
	raw, ok := values[KeyCategories]
	if !ok || raw == nil {
		return nil, nil
	}
	var decoded []models.Category
	if err := decodeValue(KeyCategories, raw, &decoded); err != nil {
		return nil, err
	}
	out := decoded[:0]
	for _, c := range decoded {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			continue
		}
		if c.ID == "" {
			c.ID = slugify(c.Name)
		}
		out = append(out, c)
	}
	return out, nil
}

// Save replaces the stored list.
func (s *CategoryStore) Save(ctx context.Context, categories []models.Category) error {
	encoded := make([]any, 0, len(categories))
	for _, c := range categories {
		encoded = append(encoded, map[string]any{
			"id":          c.ID,
			"name":        c.Name,
			"description": c.Description,
		})
	}
	if err := s.kv.Set(ctx, map[string]any{KeyCategories: encoded}); err != nil {
		return fmt.Errorf("save categories: %w", err)
	}
	return nil
}

// Add appends a category with a fresh id. Names must be unique (case-insensitive).
func (s *CategoryStore) Add(ctx context.Context, name, description string) (models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Category{}, fmt.Errorf("%w: category name is required", models.ErrValidation)
	}
	current, err := s.load(ctx)
	if err != nil {
		return models.Category{}, err
	}
	for _, c := range current {
		if strings.EqualFold(c.Name, name) {
			return models.Category{}, fmt.Errorf("%w: category %q", ErrDuplicate, name)
		}
	}
	created := models.Category{ID: uuid.NewString(), Name: name, Description: strings.TrimSpace(description)}
	if err := s.Save(ctx, append(current, created)); err != nil {
		return models.Category{}, err
	}
	return created, nil
}

// Remove deletes the category whose id or name (case-insensitive) matches ref.
func (s *CategoryStore) Remove(ctx context.Context, ref string) (models.Category, error) {
	current, err := s.load(ctx)
	if err != nil {
		return models.Category{}, err
	}
	for i, c := range current {
		if c.ID == ref || strings.EqualFold(c.Name, ref) {
			remaining := append(current[:i:i], current[i+1:]...)
			if err := s.Save(ctx, remaining); err != nil {
				return models.Category{}, err
			}
			return c, nil
		}
	}
	return models.Category{}, fmt.Errorf("%w: category %q", ErrNotFound, ref)
}

// Reset overwrites the list with DefaultCategories.
func (s *CategoryStore) Reset(ctx context.Context) ([]models.Category, error) {
	defaults := make([]models.Category, len(DefaultCategories))
	copy(defaults, DefaultCategories)
	return defaults, s.Save(ctx, defaults)
}

func slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

var _ CategorySource = (*CategoryStore)(nil)
