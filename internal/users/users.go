// Package users implements the user registry: CRUD over event staff with
// unique names and profile photos stored under a file name derived from the
// user's name. No two users may derive the same photo file name.
package users

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/rhymednick/inw-radio-log/internal/cache"
	"github.com/rhymednick/inw-radio-log/internal/models"
	"github.com/rhymednick/inw-radio-log/internal/photo"
	"github.com/rhymednick/inw-radio-log/internal/store"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// CollectionName is the name of the user collection in the record store.
const CollectionName = "users"

// Result is the outcome of a user mutation. PhotoErr is set when the record
// was written but the accompanying photo operation failed.
type Result struct {
	User     models.User
	PhotoErr error
}

// Registry manages users.
type Registry struct {
	users  *store.Collection[models.User]
	photos photo.Store
	cache  *cache.UserCache
	now    func() time.Time
	newID  func() string
}

// New creates a Registry persisting users in s and their photos in photos.
func New(s store.Store, photos photo.Store, userCache *cache.UserCache) *Registry {
	if userCache == nil {
		userCache = cache.NewUserCache(nil)
	}
	return &Registry{
		users:  store.NewCollection[models.User](s, CollectionName),
		photos: photos,
		cache:  userCache,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Collection returns the underlying user collection.
func (r *Registry) Collection() *store.Collection[models.User] {
	return r.users
}

// List returns all users, sorted by name when sorted is true. Names are
// ordered with the root collation, so "alpha" sorts before "Bravo" and
// accented letters sit next to their base letter.
func (r *Registry) List(ctx context.Context, sorted bool) ([]models.User, error) {
	users, err := r.users.Load(ctx)
	if err != nil {
		return nil, err
	}
	if sorted {
		c := collate.New(language.Und)
		slices.SortStableFunc(users, func(a, b models.User) int {
			return c.CompareString(a.Name, b.Name)
		})
	}
	return users, nil
}

// Get returns the user with the given id.
func (r *Registry) Get(ctx context.Context, id string) (models.User, error) {
	users, err := r.users.Load(ctx)
	if err != nil {
		return models.User{}, err
	}
	idx := indexOf(users, id)
	if idx < 0 {
		return models.User{}, fmt.Errorf("%w: user %s", models.ErrNotFound, id)
	}
	return users[idx], nil
}

// Create adds a user. If photoData is not empty it is stored under the file
// name derived from name; a photo failure is reported in Result.PhotoErr.
func (r *Registry) Create(ctx context.Context, name string, photoData []byte) (Result, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Result{}, fmt.Errorf("%w: name is required", models.ErrBadRequest)
	}

	var res Result
	err := r.users.Update(ctx, func(users []models.User) ([]models.User, error) {
		if other := findByName(users, name, ""); other != nil {
			return nil, fmt.Errorf("%w: a user named %q already exists", models.ErrConflict, other.Name)
		}

		user := models.User{
			ID:          r.newID(),
			Name:        name,
			LastUpdated: r.now(),
		}
		if len(photoData) > 0 {
			user.ProfilePhoto, res.PhotoErr = r.savePhoto(ctx, name, photoData)
		}
		res.User = user
		return append(users, user), nil
	})
	if err != nil {
		return Result{}, err
	}

	r.cache.Clear(ctx)
	log.Info("created user", "id", res.User.ID, "name", res.User.Name)
	return res, nil
}

// Update changes the name and/or photo of a user. A nil name keeps the
// current name. On rename an existing photo is moved to the new derived file
// name; a new photo overwrites the one stored under the derived file name.
func (r *Registry) Update(ctx context.Context, id string, name *string, photoData []byte) (Result, error) {
	var newName string
	if name != nil {
		newName = strings.TrimSpace(*name)
		if newName == "" {
			return Result{}, fmt.Errorf("%w: name must not be empty", models.ErrBadRequest)
		}
	}

	var res Result
	err := r.users.Update(ctx, func(users []models.User) ([]models.User, error) {
		idx := indexOf(users, id)
		if idx < 0 {
			return nil, fmt.Errorf("%w: user %s", models.ErrNotFound, id)
		}
		user := users[idx]

		if newName != "" && newName != user.Name {
			if other := findByName(users, newName, id); other != nil {
				return nil, fmt.Errorf("%w: a user named %q already exists", models.ErrConflict, other.Name)
			}
			oldFile, newFile := photo.FileName(user.Name), photo.FileName(newName)
			if oldFile != newFile {
				url, err := r.renamePhoto(ctx, oldFile, newFile)
				switch {
				case err != nil:
					res.PhotoErr = err
				case url != "":
					user.ProfilePhoto = url
				}
			}
			user.Name = newName
		}

		if len(photoData) > 0 {
			url, err := r.savePhoto(ctx, user.Name, photoData)
			if err != nil {
				res.PhotoErr = errors.Join(res.PhotoErr, err)
			} else {
				user.ProfilePhoto = url
			}
		}

		user.LastUpdated = r.now()
		users[idx] = user
		res.User = user
		return users, nil
	})
	if err != nil {
		return Result{}, err
	}

	r.cache.Clear(ctx)
	log.Info("updated user", "id", res.User.ID, "name", res.User.Name)
	return res, nil
}

// Delete removes a user and moves their photo into the photo archive.
func (r *Registry) Delete(ctx context.Context, id string) (Result, error) {
	var res Result
	err := r.users.Update(ctx, func(users []models.User) ([]models.User, error) {
		idx := indexOf(users, id)
		if idx < 0 {
			return nil, fmt.Errorf("%w: user %s", models.ErrNotFound, id)
		}
		res.User = users[idx]
		return slices.Delete(users, idx, idx+1), nil
	})
	if err != nil {
		return Result{}, err
	}
	r.cache.Clear(ctx)

	res.PhotoErr = r.archivePhoto(ctx, res.User)
	log.Info("deleted user", "id", res.User.ID, "name", res.User.Name)
	return res, nil
}

// Replace overwrites the whole registry with users.
func (r *Registry) Replace(ctx context.Context, users []models.User) error {
	if err := r.users.Save(ctx, users); err != nil {
		return err
	}
	r.cache.Clear(ctx)
	return nil
}

// DisplayName returns the name of the user with the given id, or
// models.UnknownUserName if there is no such user.
func (r *Registry) DisplayName(ctx context.Context, id string) string {
	if user, ok := r.cache.Get(ctx, id); ok {
		return user.Name
	}
	users, err := r.users.Load(ctx)
	if err != nil {
		log.Error("failed to load users", "error", err)
		return models.UnknownUserName
	}
	r.cache.SetAll(ctx, users)
	if idx := indexOf(users, id); idx >= 0 {
		return users[idx].Name
	}
	return models.UnknownUserName
}

// CacheStats returns the statistics of the user lookup cache.
func (r *Registry) CacheStats() []*cache.Stats {
	return r.cache.GetStats()
}

func (r *Registry) savePhoto(ctx context.Context, name string, data []byte) (string, error) {
	file := photo.FileName(name)
	url, err := r.photos.Save(ctx, file, data)
	if err != nil {
		log.Warn("failed to save profile photo", "name", name, "file", file, "error", err)
		return "", fmt.Errorf("failed to save profile photo: %w", err)
	}
	return url, nil
}

// renamePhoto moves the photo at oldFile to newFile. It returns an empty URL
// if there is no photo to move.
func (r *Registry) renamePhoto(ctx context.Context, oldFile, newFile string) (string, error) {
	exists, err := r.photos.Exists(ctx, oldFile)
	if err != nil {
		log.Warn("failed to check profile photo", "file", oldFile, "error", err)
		return "", fmt.Errorf("failed to rename profile photo: %w", err)
	}
	if !exists {
		return "", nil
	}
	url, err := r.photos.Rename(ctx, oldFile, newFile)
	if err != nil {
		log.Warn("failed to rename profile photo", "from", oldFile, "to", newFile, "error", err)
		return "", fmt.Errorf("failed to rename profile photo: %w", err)
	}
	return url, nil
}

func (r *Registry) archivePhoto(ctx context.Context, user models.User) error {
	file := photo.NameFromURL(user.ProfilePhoto)
	if file == "" {
		file = photo.FileName(user.Name)
	}
	archived, err := r.photos.Archive(ctx, file)
	switch {
	case errors.Is(err, photo.ErrPhotoNotFound):
		return nil
	case err != nil:
		log.Warn("failed to archive profile photo", "file", file, "error", err)
		return fmt.Errorf("failed to archive profile photo: %w", err)
	}
	log.Debug("archived profile photo", "file", file, "archived", archived)
	return nil
}

func indexOf(users []models.User, id string) int {
	return slices.IndexFunc(users, func(u models.User) bool {
		return u.ID == id
	})
}

// findByName returns the user whose name clashes with name, ignoring the user
// with id except. Names clash when they match case-insensitively or derive
// the same photo file name, as "Jane Doe" and "jane_doe" do.
func findByName(users []models.User, name, except string) *models.User {
	file := photo.FileName(name)
	for i := range users {
		if users[i].ID == except {
			continue
		}
		if strings.EqualFold(users[i].Name, name) || photo.FileName(users[i].Name) == file {
			return &users[i]
		}
	}
	return nil
}
