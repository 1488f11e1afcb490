package database

import (
	"encoding/json"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"stocks-bot/models"
)

// Collections. A document key is "<collection>/<uuid>" and doubles as the
// document's reference.
const (
	colUsers      = "users"
	colPortfolios = "portfolios"
	colStocks     = "stocks"
)

// ErrStoreUnavailable is returned when the store has not been opened or has
// already been closed.
var ErrStoreUnavailable = errors.New("database: store not initialized")

// Store keeps user, portfolio and stock documents in Badger. Documents are
// JSON values; relationships are held as references (keys), resolved through
// lookups rather than embedding.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the document store at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("database: path is required")
	}
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, errors.Wrap(err, "database: open")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ready() error {
	if s == nil || s.db == nil {
		return ErrStoreUnavailable
	}
	return nil
}

func newRef(collection string) models.Ref {
	return models.Ref(collection + "/" + uuid.NewString())
}

func putDoc(txn *badger.Txn, ref models.Ref, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrapf(err, "database: marshal %s", ref)
	}
	return txn.Set([]byte(ref), raw)
}

// getDoc resolves a reference into doc. Returns false when the referenced
// document does not exist.
func getDoc(txn *badger.Txn, ref models.Ref, doc any) (bool, error) {
	item, err := txn.Get([]byte(ref))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "database: get %s", ref)
	}
	err = item.Value(func(raw []byte) error {
		return json.Unmarshal(raw, doc)
	})
	if err != nil {
		return false, errors.Wrapf(err, "database: decode %s", ref)
	}
	return true, nil
}

// firstUserByEmail scans the users collection for an equality match on the
// email field. The first match wins; additional matches are tolerated and
// ignored. Returns an empty ref when no user matches.
func firstUserByEmail(txn *badger.Txn, email string) (models.Ref, models.User, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(colUsers + "/")
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		var user models.User
		err := item.Value(func(raw []byte) error {
			return json.Unmarshal(raw, &user)
		})
		if err != nil {
			return "", models.User{}, errors.Wrapf(err, "database: decode %s", item.Key())
		}
		if user.Email == email {
			return models.Ref(item.KeyCopy(nil)), user, nil
		}
	}
	return "", models.User{}, nil
}

// UserExists reports whether at least one user document matches email.
func (s *Store) UserExists(email string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	var found bool
	err := s.db.View(func(txn *badger.Txn) error {
		ref, _, err := firstUserByEmail(txn, email)
		found = ref != ""
		return err
	})
	return found, err
}

// CreatePortfolio inserts an empty portfolio document and returns its
// reference.
func (s *Store) CreatePortfolio() (models.Ref, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	ref := newRef(colPortfolios)
	err := s.db.Update(func(txn *badger.Txn) error {
		return putDoc(txn, ref, models.Portfolio{Stocks: []models.Ref{}})
	})
	if err != nil {
		return "", err
	}
	return ref, nil
}

// CreateUser creates a user with a fresh empty portfolio. When a user with
// that email already exists this is a no-op and returns (nil, nil). The
// portfolio and the user referencing it are written in one transaction, so
// the portfolio exists before the user document points at it.
func (s *Store) CreateUser(email string) (*models.User, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var created *models.User
	err := s.db.Update(func(txn *badger.Txn) error {
		existing, _, err := firstUserByEmail(txn, email)
		if err != nil {
			return err
		}
		if existing != "" {
			return nil
		}
		portfolioRef := newRef(colPortfolios)
		if err := putDoc(txn, portfolioRef, models.Portfolio{Stocks: []models.Ref{}}); err != nil {
			return err
		}
		user := models.User{Email: email, Portfolio: portfolioRef}
		if err := putDoc(txn, newRef(colUsers), user); err != nil {
			return err
		}
		created = &user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetUserPortfolioRef returns the portfolio reference of the first user
// matching email, or an empty ref when no user matches.
func (s *Store) GetUserPortfolioRef(email string) (models.Ref, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	var ref models.Ref
	err := s.db.View(func(txn *badger.Txn) error {
		userRef, user, err := firstUserByEmail(txn, email)
		if err != nil {
			return err
		}
		if userRef != "" {
			ref = user.Portfolio
		}
		return nil
	})
	return ref, err
}

// AddStockToPortfolio records a purchase for an existing user. The stock
// document is written and its reference appended to the user's portfolio,
// preserving prior entries and their order. Returns an empty ref when the
// user (and hence the portfolio) does not exist; the caller is expected to
// have created the user first.
func (s *Store) AddStockToPortfolio(email, ticker, quantity string, ts time.Time) (models.Ref, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	var stockRef models.Ref
	err := s.db.Update(func(txn *badger.Txn) error {
		_, user, err := firstUserByEmail(txn, email)
		if err != nil {
			return err
		}
		if user.Portfolio == "" {
			return nil
		}
		var portfolio models.Portfolio
		ok, err := getDoc(txn, user.Portfolio, &portfolio)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		ref := newRef(colStocks)
		if err := putDoc(txn, ref, models.Stock{Ticker: ticker, Quantity: quantity, Date: ts}); err != nil {
			return err
		}
		portfolio.Stocks = append(portfolio.Stocks, ref)
		if err := putDoc(txn, user.Portfolio, portfolio); err != nil {
			return err
		}
		stockRef = ref
		return nil
	})
	if err != nil {
		return "", err
	}
	return stockRef, nil
}

// GetAllStocksForUser resolves user -> portfolio -> stocks and returns one
// view per stock, in insertion order. Returns (nil, nil) when the user, the
// portfolio reference or the portfolio document is missing. Stock references
// that no longer resolve are skipped.
func (s *Store) GetAllStocksForUser(email string) ([]models.StockView, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var views []models.StockView
	err := s.db.View(func(txn *badger.Txn) error {
		userRef, user, err := firstUserByEmail(txn, email)
		if err != nil {
			return err
		}
		if userRef == "" || user.Portfolio == "" {
			return nil
		}
		var portfolio models.Portfolio
		ok, err := getDoc(txn, user.Portfolio, &portfolio)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		views = make([]models.StockView, 0, len(portfolio.Stocks))
		for _, ref := range portfolio.Stocks {
			var stock models.Stock
			ok, err := getDoc(txn, ref, &stock)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			views = append(views, stock.View())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}
