package studio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/vocalis-ai/vocalis/pkg/storage"
)

// ErrItemNotFound is returned when a gallery id does not exist.
var ErrItemNotFound = errors.New("studio: gallery item not found")

// Kind distinguishes gallery media types.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Item is one gallery record. Media bytes live in the blob store under Path;
// the record itself is msgpack-encoded in the badger index.
type Item struct {
	ID        string    `msgpack:"id" json:"id"`
	Kind      Kind      `msgpack:"kind" json:"kind"`
	Prompt    string    `msgpack:"prompt" json:"prompt"`
	Model     string    `msgpack:"model" json:"model"`
	MIMEType  string    `msgpack:"mime_type" json:"mimeType"`
	Path      string    `msgpack:"path" json:"path"`
	CreatedAt time.Time `msgpack:"created_at" json:"createdAt"`
}

// Gallery persists generated media: a badger index of item records plus a
// blob store holding the media bytes.
type Gallery struct {
	db    *badger.DB
	blobs storage.BlobStore
}

// GalleryOptions configures a Gallery.
type GalleryOptions struct {
	// Dir is the directory for the badger index files.
	// Required unless InMemory is set.
	Dir string

	// InMemory runs the index in memory-only mode. Useful for testing with
	// a real badger engine.
	InMemory bool

	// Blobs stores the media bytes. Required.
	Blobs storage.BlobStore
}

// OpenGallery opens the gallery index and attaches the blob store.
func OpenGallery(opts GalleryOptions) (*Gallery, error) {
	if opts.Blobs == nil {
		return nil, errors.New("studio: GalleryOptions.Blobs is required")
	}
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("studio: GalleryOptions.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(badgerLogger{})
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("studio: open gallery index: %w", err)
	}
	return &Gallery{db: db, blobs: opts.Blobs}, nil
}

// Add stores one generated media item and returns its record. The blob is
// written before the index record so a crash never leaves a dangling record.
func (g *Gallery) Add(ctx context.Context, kind Kind, prompt, model, mimeType string, data []byte) (*Item, error) {
	item := &Item{
		ID:        uuid.New().String(),
		Kind:      kind,
		Prompt:    prompt,
		Model:     model,
		MIMEType:  mimeType,
		CreatedAt: time.Now().UTC(),
	}
	item.Path = fmt.Sprintf("%ss/%s%s", kind, item.ID, extForMIME(mimeType))

	w, err := g.blobs.Write(ctx, item.Path)
	if err != nil {
		return nil, fmt.Errorf("studio: write media blob: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("studio: write media blob: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("studio: write media blob: %w", err)
	}

	rec, err := msgpack.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("studio: encode gallery record: %w", err)
	}
	err = g.db.Update(func(txn *badger.Txn) error {
		return txn.Set(itemKey(item.ID), rec)
	})
	if err != nil {
		g.blobs.Delete(ctx, item.Path)
		return nil, fmt.Errorf("studio: index gallery record: %w", err)
	}
	return item, nil
}

// Get returns one item record by id.
func (g *Gallery) Get(_ context.Context, id string) (*Item, error) {
	var item Item
	err := g.db.View(func(txn *badger.Txn) error {
		rec, err := txn.Get(itemKey(id))
		if err != nil {
			return err
		}
		return rec.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &item)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("studio: read gallery record: %w", err)
	}
	return &item, nil
}

// Open returns the media bytes and record for one item.
func (g *Gallery) Open(ctx context.Context, id string) (io.ReadCloser, *Item, error) {
	item, err := g.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	r, err := g.blobs.Read(ctx, item.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("studio: read media blob: %w", err)
	}
	return r, item, nil
}

// List returns all item records, newest first.
func (g *Gallery) List(_ context.Context) ([]*Item, error) {
	var items []*Item
	err := g.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(itemPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(itemPrefix)); it.ValidForPrefix([]byte(itemPrefix)); it.Next() {
			var item Item
			err := it.Item().Value(func(val []byte) error {
				return msgpack.Unmarshal(val, &item)
			})
			if err != nil {
				return err
			}
			items = append(items, &item)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("studio: list gallery: %w", err)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
	return items, nil
}

// Delete removes an item's record and media. Deleting an unknown id is a
// no-op.
func (g *Gallery) Delete(ctx context.Context, id string) error {
	item, err := g.Get(ctx, id)
	if errors.Is(err, ErrItemNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	err = g.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(itemKey(id))
	})
	if err != nil {
		return fmt.Errorf("studio: delete gallery record: %w", err)
	}
	return g.blobs.Delete(ctx, item.Path)
}

// Close closes the gallery index.
func (g *Gallery) Close() error {
	return g.db.Close()
}

const itemPrefix = "item:"

func itemKey(id string) []byte {
	return []byte(itemPrefix + id)
}

// extForMIME maps a media MIME type to a blob filename extension.
func extForMIME(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	default:
		return ".bin"
	}
}

// badgerLogger routes badger output to slog, suppressing debug and info
// level messages.
type badgerLogger struct{}

func (badgerLogger) Errorf(f string, v ...interface{}) {
	slog.Error(fmt.Sprintf("badger: "+f, v...))
}
func (badgerLogger) Warningf(f string, v ...interface{}) {
	slog.Warn(fmt.Sprintf("badger: "+f, v...))
}
func (badgerLogger) Infof(string, ...interface{})  {}
func (badgerLogger) Debugf(string, ...interface{}) {}
