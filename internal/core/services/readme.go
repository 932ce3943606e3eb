package services

import (
	"context"
	"path"

	"github.com/custodia-labs/marketsync/internal/catalog"
	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
	"github.com/custodia-labs/marketsync/internal/logger"
)

// ReadmeService renders README sections of products. Failures degrade to
// empty sections and are only logged.
type ReadmeService struct {
	remote           driven.RemoteRepository
	marketRepository string
}

// NewReadmeService creates a README service. marketRepository is used for
// products that do not record the repository they were synced from.
func NewReadmeService(remote driven.RemoteRepository, marketRepository string) *ReadmeService {
	if marketRepository == "" {
		marketRepository = domain.DefaultRepository
	}
	return &ReadmeService{remote: remote, marketRepository: marketRepository}
}

// Sections returns the README sections of a product. An empty tag reads the
// product directory of the market repository at HEAD; otherwise the first
// product directory of the product's own repository is read at that tag.
func (s *ReadmeService) Sections(ctx context.Context, product *domain.Product, tag string) domain.ReadmeSections {
	if product == nil || s.remote == nil {
		return domain.ReadmeSections{}
	}

	repo, dir, ok := s.locate(ctx, product, tag)
	if !ok {
		return domain.ReadmeSections{}
	}

	file, err := s.remote.GetFileContent(ctx, repo, path.Join(dir, catalog.ReadmeFile), tag)
	if err != nil {
		logger.Debug("readme of %s: %v", product.Key, err)
		return domain.ReadmeSections{}
	}

	return catalog.ExtractReadme(string(file.Content), s.imageURLs(ctx, repo, dir, tag))
}

func (s *ReadmeService) locate(ctx context.Context, product *domain.Product, tag string) (repo, dir string, ok bool) {
	if tag == "" {
		repo = product.SourceRepository
		if repo == "" {
			repo = s.marketRepository
		}
		dir = product.MarketDirectory
		if dir == "" {
			dir = catalog.ProductDir(product.Key)
		}
		return repo, dir, true
	}

	if product.RepositoryName == "" {
		logger.Debug("readme of %s at %s: product has no repository", product.Key, tag)
		return "", "", false
	}
	root, err := s.remote.GetDirectoryContent(ctx, product.RepositoryName, "", tag)
	if err != nil {
		logger.Debug("readme of %s at %s: %v", product.Key, tag, err)
		return "", "", false
	}
	for _, e := range root {
		if _, isProduct := catalog.ProductKey(e.Name); e.IsDir() && isProduct {
			return product.RepositoryName, e.Path, true
		}
	}
	logger.Debug("readme of %s at %s: no product directory", product.Key, tag)
	return "", "", false
}

func (s *ReadmeService) imageURLs(ctx context.Context, repo, dir, ref string) map[string]string {
	root, err := s.remote.GetDirectoryContent(ctx, repo, dir, ref)
	if err != nil {
		logger.Debug("listing %s: %v", dir, err)
		return nil
	}

	var images []domain.DirEntry
	for _, e := range root {
		if e.IsDir() && e.Name == catalog.ImagesDir {
			images, err = s.remote.GetDirectoryContent(ctx, repo, e.Path, ref)
			if err != nil {
				logger.Debug("listing %s: %v", e.Path, err)
			}
			break
		}
	}
	return catalog.ImageURLs(root, images)
}
