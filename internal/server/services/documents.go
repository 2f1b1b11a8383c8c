// Package services holds the document server's business logic between the
// gRPC handlers and the repositories.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ridekeeper/internal/common"
	"github.com/dmitrijs2005/ridekeeper/internal/docrpc"
	"github.com/dmitrijs2005/ridekeeper/internal/logging"
	"github.com/dmitrijs2005/ridekeeper/internal/server/broker"
	"github.com/dmitrijs2005/ridekeeper/internal/server/repositories/documents"
)

// DocumentService stores documents and notifies watchers of every write.
type DocumentService struct {
	repo   documents.Repository
	broker *broker.Broker
	logger logging.Logger
}

func NewDocumentService(repo documents.Repository, b *broker.Broker, logger logging.Logger) *DocumentService {
	return &DocumentService{repo: repo, broker: b, logger: logger.With("module", "documents")}
}

func validRef(collection, id string) error {
	if collection == "" {
		return fmt.Errorf("%w: collection is required", common.ErrorInvalidArgument)
	}
	if id == "" {
		return fmt.Errorf("%w: id is required", common.ErrorInvalidArgument)
	}
	return nil
}

func (s *DocumentService) updated(collection string, doc docrpc.Document) {
	s.broker.Publish(collection, docrpc.Change{Kind: docrpc.ChangeUpdated, Document: doc})
}

func (s *DocumentService) Create(ctx context.Context, collection string, data map[string]any) (string, error) {
	if collection == "" {
		return "", fmt.Errorf("%w: collection is required", common.ErrorInvalidArgument)
	}
	doc, err := s.repo.Create(ctx, collection, data)
	if err != nil {
		return "", err
	}
	s.updated(collection, doc)
	return doc.ID, nil
}

func (s *DocumentService) Set(ctx context.Context, collection, id string, data map[string]any) error {
	if err := validRef(collection, id); err != nil {
		return err
	}
	doc, err := s.repo.Set(ctx, collection, id, data)
	if err != nil {
		return err
	}
	s.updated(collection, doc)
	return nil
}

func (s *DocumentService) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := validRef(collection, id); err != nil {
		return err
	}
	doc, err := s.repo.Update(ctx, collection, id, fields)
	if err != nil {
		return err
	}
	s.updated(collection, doc)
	return nil
}

func (s *DocumentService) Get(ctx context.Context, collection, id string) (docrpc.Document, error) {
	if err := validRef(collection, id); err != nil {
		return docrpc.Document{}, err
	}
	return s.repo.Get(ctx, collection, id)
}

func (s *DocumentService) Delete(ctx context.Context, collection, id string) error {
	if err := validRef(collection, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, collection, id); err != nil {
		return err
	}
	s.broker.Publish(collection, docrpc.Change{Kind: docrpc.ChangeDeleted, Document: docrpc.Document{ID: id}})
	return nil
}

func (s *DocumentService) Query(ctx context.Context, collection string, filters []docrpc.Filter) ([]docrpc.Document, error) {
	if collection == "" {
		return nil, fmt.Errorf("%w: collection is required", common.ErrorInvalidArgument)
	}
	for _, f := range filters {
		if f.Field == "" {
			return nil, fmt.Errorf("%w: filter field is required", common.ErrorInvalidArgument)
		}
	}
	return s.repo.Query(ctx, collection, filters)
}

// Watch sends the current state of the document, then every later change,
// until ctx is done or send fails. Changes older than the state already
// sent are skipped.
func (s *DocumentService) Watch(ctx context.Context, collection, id string, send func(docrpc.Change) error) error {
	if err := validRef(collection, id); err != nil {
		return err
	}

	// subscribe before reading so no write falls in between
	changes, cancel := s.broker.Subscribe(collection, id)
	defer cancel()

	var version int64
	first := docrpc.Change{Kind: docrpc.ChangeDeleted, Document: docrpc.Document{ID: id}}
	doc, err := s.repo.Get(ctx, collection, id)
	switch {
	case err == nil:
		first = docrpc.Change{Kind: docrpc.ChangeSnapshot, Document: doc}
		version = doc.Version
	case !errors.Is(err, common.ErrorNotFound):
		return err
	}
	if err := send(first); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case c, ok := <-changes:
			if !ok {
				return nil
			}
			if c.Kind == docrpc.ChangeUpdated && c.Document.Version <= version {
				continue
			}
			if c.Kind == docrpc.ChangeDeleted {
				version = 0
			} else {
				version = c.Document.Version
			}
			if err := send(c); err != nil {
				s.logger.Debug(ctx, "watcher gone", "collection", collection, "id", id, "error", err)
				return err
			}
		}
	}
}
