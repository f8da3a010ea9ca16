package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/vanshika/fintrace/linkgraph/internal/domain"
)

const (
	UsersFile        = "users.json"
	TransactionsFile = "transactions.json"
)

// ErrMissingDataset indicates the dataset directory or one of its files does not exist.
var ErrMissingDataset = errors.New("dataset not found")

// Dataset contains users and transactions as stored on disk.
type Dataset struct {
	Users        []domain.User        `json:"users"`
	Transactions []domain.Transaction `json:"transactions"`
}

// FileStore reads a dataset written by WriteDataset. Files are re-read on
// every load so edits show up on the next refresh.
type FileStore struct {
	dir    string
	logger *zap.Logger
}

func NewFileStore(dir string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{dir: dir, logger: logger.Named("dataset")}
}

// Dir returns the directory the store reads from.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) LoadUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := s.readJSON(ctx, UsersFile, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *FileStore) LoadTransactions(ctx context.Context) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	if err := s.readJSON(ctx, TransactionsFile, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// Load reads both files.
func (s *FileStore) Load(ctx context.Context) (Dataset, error) {
	users, err := s.LoadUsers(ctx)
	if err != nil {
		return Dataset{}, err
	}
	txs, err := s.LoadTransactions(ctx)
	if err != nil {
		return Dataset{}, err
	}
	return Dataset{Users: users, Transactions: txs}, nil
}

// Ping reports whether both dataset files are present.
func (s *FileStore) Ping(context.Context) error {
	for _, name := range []string{UsersFile, TransactionsFile} {
		path := filepath.Join(s.dir, name)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("%w: %s", ErrMissingDataset, path)
			}
			return fmt.Errorf("stat %s: %w", path, err)
		}
	}
	return nil
}

func (s *FileStore) readJSON(ctx context.Context, name string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Join(s.dir, name)
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrMissingDataset, path)
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(out); err != nil {
		return fmt.Errorf("decode json from %s: %w", path, err)
	}
	s.logger.Debug("dataset file loaded", zap.String("path", path))
	return nil
}

// WriteDataset serializes the dataset into users.json and transactions.json under the provided directory.
func WriteDataset(dataset Dataset, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	if err := writeJSON(filepath.Join(dir, UsersFile), dataset.Users); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, TransactionsFile), dataset.Transactions)
}

func writeJSON(path string, data any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encode json for %s: %w", path, err)
	}
	return nil
}
