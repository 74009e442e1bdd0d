package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/deleginsumos/deleginsumos/internal/domain"
)

// Querier abstrae la ejecución de SQL para que los repositorios funcionen
// igual con el Store (fuera de transacción) o con una *sql.Tx.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

var _ Querier = (*sql.Tx)(nil)
var _ Querier = (*Store)(nil)

// Store administra las conexiones al archivo SQLite: un pool de escritura de
// una sola conexión (WAL admite un escritor) y un pool de lectura concurrente.
// El RWMutex permite que Close/Reopen (usados por restore) intercambien los
// pools sin dejar colgando a los repositorios que sostienen el Store.
type Store struct {
	mu      sync.RWMutex
	ruta    string
	write   *sql.DB
	read    *sql.DB
	cerrado bool
	log     zerolog.Logger
}

// Open abre (o crea) la base de datos en ruta y configura ambos pools.
func Open(ruta string, log zerolog.Logger) (*Store, error) {
	if dir := filepath.Dir(ruta); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: crear directorio de datos: %v", domain.ErrConnection, err)
		}
	}

	s := &Store{ruta: ruta, log: log.With().Str("componente", "store").Logger()}
	if err := s.abrirPools(); err != nil {
		return nil, err
	}
	s.log.Info().Str("ruta", ruta).Msg("base de datos abierta")
	return s, nil
}

func (s *Store) abrirPools() error {
	// BEGIN IMMEDIATE en el pool de escritura: toma el write-lock al abrir la
	// transacción y evita upgrades tardíos que terminan en SQLITE_BUSY.
	write, err := sql.Open("sqlite", "file:"+s.ruta+"?_txlock=immediate")
	if err != nil {
		return fmt.Errorf("%w: abrir pool de escritura: %v", domain.ErrConnection, err)
	}
	write.SetMaxOpenConns(1)

	read, err := sql.Open("sqlite", "file:"+s.ruta)
	if err != nil {
		_ = write.Close()
		return fmt.Errorf("%w: abrir pool de lectura: %v", domain.ErrConnection, err)
	}
	read.SetMaxOpenConns(8)

	for _, db := range []*sql.DB{write, read} {
		if err := configurarConexion(db); err != nil {
			_ = write.Close()
			_ = read.Close()
			return fmt.Errorf("%w: %v", domain.ErrConnection, err)
		}
	}

	s.write = write
	s.read = read
	return nil
}

// configurarConexion aplica los PRAGMA por pool. journal_mode se fija con
// PRAGMA explícito porque los parámetros de la connection string no son
// confiables entre drivers.
func configurarConexion(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=30000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-2000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("aplicar %s: %w", p, err)
		}
	}

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		return fmt.Errorf("verificar foreign_keys: %w", err)
	}
	if fk != 1 {
		return fmt.Errorf("foreign_keys no quedó habilitado")
	}
	return db.Ping()
}

// Ruta devuelve la ruta del archivo de base de datos.
func (s *Store) Ruta() string { return s.ruta }

// Exec ejecuta una sentencia de escritura en el pool de escritura.
func (s *Store) Exec(query string, args ...any) (sql.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cerrado {
		return nil, domain.ErrConnection
	}
	return s.write.Exec(query, args...)
}

// Query ejecuta una consulta en el pool de lectura.
func (s *Store) Query(query string, args ...any) (*sql.Rows, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cerrado {
		return nil, domain.ErrConnection
	}
	return s.read.Query(query, args...)
}

// QueryRow ejecuta una consulta de una fila en el pool de lectura. Con el
// store cerrado delega igual: los handles nunca se anulan, así el Scan de la
// fila devuelve el error de pool cerrado en lugar de un panic durante la
// ventana de restore.
func (s *Store) QueryRow(query string, args ...any) *sql.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read.QueryRow(query, args...)
}

// BeginTx inicia una transacción inmediata en el pool de escritura.
func (s *Store) BeginTx(ctx context.Context) (*sql.Tx, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cerrado {
		return nil, domain.ErrConnection
	}
	tx, err := s.write.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %v", domain.ErrConnection, err)
	}
	return tx, nil
}

// Close cierra ambos pools. Lo usa el shutdown y el restore (que necesita
// acceso exclusivo al archivo antes de reemplazarlo). Los handles cerrados se
// conservan en lugar de anularse: una lectura tardía obtiene un error de pool
// cerrado, nunca una deferencia nula.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cerrado {
		return nil
	}
	s.cerrado = true
	errW := s.write.Close()
	errR := s.read.Close()
	if errW != nil {
		return errW
	}
	return errR
}

// Reopen vuelve a abrir los pools sobre el archivo actual (post-restore).
func (s *Store) Reopen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cerrado {
		return fmt.Errorf("%w: reopen con pools abiertos", domain.ErrConnection)
	}
	if err := s.abrirPools(); err != nil {
		return err
	}
	s.cerrado = false
	s.log.Info().Str("ruta", s.ruta).Msg("base de datos reabierta")
	return nil
}
