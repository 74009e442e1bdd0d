package backup

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/deleginsumos/deleginsumos/internal/domain"
)

// Buckets donde se clasifican los artefactos de backup.
const (
	BucketDiario     = "diario"
	BucketSemanal    = "semanal"
	BucketManual     = "manual"
	BucketPreRestore = "pre_restore"
)

var buckets = []string{BucketDiario, BucketSemanal, BucketManual, BucketPreRestore}

// Almacen lo que el servicio necesita del store: ejecutar VACUUM INTO sobre la
// BD viva y cerrarla/reabrirla alrededor de un restore.
type Almacen interface {
	Ruta() string
	Exec(query string, args ...any) (sql.Result, error)
	Close() error
	Reopen() error
}

// Notificador recibe los fallos de backup (el motor de alertas lo implementa).
type Notificador interface {
	NotificarFalloBackup(operacion string, causa error)
}

// Config parámetros del servicio de backup.
type Config struct {
	Directorio       string
	Automatico       bool
	IntervaloHoras   int
	MaxDiarios       int
	MaxSemanales     int
	ReintentoMinutos int
}

// InfoBackup metadatos de un artefacto de backup en disco.
type InfoBackup struct {
	Nombre     string
	Ruta       string
	Bucket     string
	Tamano     int64
	Fecha      time.Time
	Comprimido bool
}

// Service crea, valida, rota y restaura backups de la base de datos.
// El backup en caliente usa VACUUM INTO, que no requiere acceso exclusivo.
type Service struct {
	almacen     Almacen
	cfg         Config
	notificador Notificador
	log         zerolog.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// NewService construye el servicio. notificador puede ser nil.
func NewService(almacen Almacen, cfg Config, notificador Notificador, log zerolog.Logger) *Service {
	if cfg.IntervaloHoras <= 0 {
		cfg.IntervaloHoras = 24
	}
	if cfg.MaxDiarios <= 0 {
		cfg.MaxDiarios = 7
	}
	if cfg.MaxSemanales <= 0 {
		cfg.MaxSemanales = 4
	}
	if cfg.ReintentoMinutos <= 0 {
		cfg.ReintentoMinutos = 30
	}
	if cfg.Directorio == "" {
		cfg.Directorio = "backups"
	}
	return &Service{
		almacen:     almacen,
		cfg:         cfg,
		notificador: notificador,
		log:         log.With().Str("componente", "backup").Logger(),
	}
}

// CrearBackupManual crea un backup bajo el bucket manual, con compresión opcional.
func (s *Service) CrearBackupManual(comprimir bool) (*InfoBackup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.crearBackup(BucketManual, comprimir)
}

// CrearBackupAutomatico crea el backup programado: los domingos va al bucket
// semanal, el resto de días al diario. Siempre comprimido. Rota el bucket
// según su retención.
func (s *Service) CrearBackupAutomatico() (*InfoBackup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket := BucketDiario
	max := s.cfg.MaxDiarios
	if time.Now().Weekday() == time.Sunday {
		bucket = BucketSemanal
		max = s.cfg.MaxSemanales
	}

	info, err := s.crearBackup(bucket, true)
	if err != nil {
		return nil, err
	}
	if err := s.rotar(bucket, max); err != nil {
		s.log.Warn().Err(err).Str("bucket", bucket).Msg("rotación de backups falló")
	}
	return info, nil
}

func (s *Service) crearBackup(bucket string, comprimir bool) (*InfoBackup, error) {
	dir := filepath.Join(s.cfg.Directorio, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: crear directorio %s: %v", domain.ErrBackup, dir, err)
	}

	nombre := fmt.Sprintf("backup_%s_%s.db", bucket, time.Now().Format("20060102_150405"))
	destino := filepath.Join(dir, nombre)

	// Backup en caliente: VACUUM INTO copia la BD viva sin bloquear escritores.
	if _, err := s.almacen.Exec(`VACUUM INTO ?`, destino); err != nil {
		return nil, fmt.Errorf("%w: vacuum into: %v", domain.ErrBackup, err)
	}

	if comprimir {
		comprimido, err := comprimirArchivo(destino)
		if err != nil {
			_ = os.Remove(destino)
			return nil, fmt.Errorf("%w: comprimir: %v", domain.ErrBackup, err)
		}
		_ = os.Remove(destino)
		destino = comprimido
		nombre += ".gz"
	}

	if err := s.validarArtefacto(destino); err != nil {
		// un backup corrupto en disco es peor que ninguno
		_ = os.Remove(destino)
		return nil, err
	}

	st, err := os.Stat(destino)
	if err != nil {
		return nil, fmt.Errorf("%w: stat artefacto: %v", domain.ErrBackup, err)
	}
	info := &InfoBackup{
		Nombre:     nombre,
		Ruta:       destino,
		Bucket:     bucket,
		Tamano:     st.Size(),
		Fecha:      st.ModTime(),
		Comprimido: comprimir,
	}
	s.log.Info().
		Str("bucket", bucket).
		Str("artefacto", nombre).
		Int64("bytes", info.Tamano).
		Msg("backup creado")
	return info, nil
}

// validarArtefacto abre el artefacto (descomprimiendo a un temporal si hace
// falta), corre integrity_check y confirma que las tres tablas núcleo existan.
func (s *Service) validarArtefacto(ruta string) error {
	rutaDB := ruta
	if strings.HasSuffix(ruta, ".gz") {
		tmp, err := descomprimirATemporal(ruta)
		if err != nil {
			return fmt.Errorf("%w: descomprimir para validar: %v", domain.ErrBackup, err)
		}
		defer os.Remove(tmp)
		rutaDB = tmp
	}
	return validarArchivoDB(rutaDB)
}

func validarArchivoDB(ruta string) error {
	db, err := sql.Open("sqlite", "file:"+ruta+"?mode=ro")
	if err != nil {
		return fmt.Errorf("%w: abrir artefacto: %v", domain.ErrBackup, err)
	}
	defer db.Close()

	var resultado string
	if err := db.QueryRow(`PRAGMA integrity_check`).Scan(&resultado); err != nil {
		return fmt.Errorf("%w: integrity_check: %v", domain.ErrBackup, err)
	}
	if resultado != "ok" {
		return fmt.Errorf("%w: integrity_check devolvió %q", domain.ErrBackup, resultado)
	}

	for _, tabla := range []string{"insumos", "empleados", "entregas"} {
		var nombre string
		err := db.QueryRow(
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, tabla,
		).Scan(&nombre)
		if err != nil {
			return fmt.Errorf("%w: falta la tabla %s en el artefacto", domain.ErrBackup, tabla)
		}
	}
	return nil
}

// rotar elimina los artefactos más viejos de un bucket por encima de max.
func (s *Service) rotar(bucket string, max int) error {
	infos, err := s.listarBucket(bucket)
	if err != nil {
		return err
	}
	if len(infos) <= max {
		return nil
	}
	// más recientes primero; lo que sobra al final se elimina
	sort.Slice(infos, func(i, j int) bool { return infos[i].Fecha.After(infos[j].Fecha) })
	for _, viejo := range infos[max:] {
		if err := os.Remove(viejo.Ruta); err != nil {
			return err
		}
		s.log.Info().Str("artefacto", viejo.Nombre).Str("bucket", bucket).Msg("backup rotado")
	}
	return nil
}

// ListarBackups lista los artefactos por bucket.
func (s *Service) ListarBackups() (map[string][]*InfoBackup, error) {
	resultado := make(map[string][]*InfoBackup, len(buckets))
	for _, b := range buckets {
		infos, err := s.listarBucket(b)
		if err != nil {
			return nil, err
		}
		sort.Slice(infos, func(i, j int) bool { return infos[i].Fecha.After(infos[j].Fecha) })
		resultado[b] = infos
	}
	return resultado, nil
}

func (s *Service) listarBucket(bucket string) ([]*InfoBackup, error) {
	dir := filepath.Join(s.cfg.Directorio, bucket)
	entradas, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: listar %s: %v", domain.ErrBackup, dir, err)
	}

	var infos []*InfoBackup
	for _, e := range entradas {
		if e.IsDir() {
			continue
		}
		nombre := e.Name()
		if !strings.HasSuffix(nombre, ".db") && !strings.HasSuffix(nombre, ".db.gz") {
			continue
		}
		st, err := e.Info()
		if err != nil {
			continue
		}
		infos = append(infos, &InfoBackup{
			Nombre:     nombre,
			Ruta:       filepath.Join(dir, nombre),
			Bucket:     bucket,
			Tamano:     st.Size(),
			Fecha:      st.ModTime(),
			Comprimido: strings.HasSuffix(nombre, ".gz"),
		})
	}
	return infos, nil
}

// RestaurarBackup reemplaza la BD viva por el backup nombrado. Orden: backup
// de seguridad pre-restore, validar el artefacto, cerrar conexiones, swap,
// re-validar. Si la re-validación falla se vuelve al archivo anterior: la BD
// viva nunca queda en estado intercambiado-pero-inválido.
func (s *Service) RestaurarBackup(nombre string) (errFinal error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	artefacto, err := s.buscar(nombre)
	if err != nil {
		return err
	}

	if _, err := s.crearBackup(BucketPreRestore, false); err != nil {
		return fmt.Errorf("%w: backup pre-restore: %v", domain.ErrBackup, err)
	}

	// materializar el artefacto a un archivo DB plano antes de tocar la BD viva
	origen := artefacto.Ruta
	if artefacto.Comprimido {
		tmp, err := descomprimirATemporal(artefacto.Ruta)
		if err != nil {
			return fmt.Errorf("%w: descomprimir artefacto: %v", domain.ErrBackup, err)
		}
		defer os.Remove(tmp)
		origen = tmp
	}
	if err := validarArchivoDB(origen); err != nil {
		return err
	}

	rutaDB := s.almacen.Ruta()
	previo := rutaDB + ".previo"

	if err := s.almacen.Close(); err != nil {
		return fmt.Errorf("%w: cerrar conexiones: %v", domain.ErrBackup, err)
	}
	defer func() {
		if err := s.almacen.Reopen(); err != nil && errFinal == nil {
			errFinal = err
		}
	}()

	if err := copiarArchivo(rutaDB, previo); err != nil {
		return fmt.Errorf("%w: copiar BD actual: %v", domain.ErrBackup, err)
	}

	// el WAL y el shm pertenecen a la BD vieja; no deben sobrevivir al swap
	_ = os.Remove(rutaDB + "-wal")
	_ = os.Remove(rutaDB + "-shm")

	if err := copiarArchivo(origen, rutaDB); err != nil {
		_ = copiarArchivo(previo, rutaDB)
		return fmt.Errorf("%w: swap de archivo: %v", domain.ErrBackup, err)
	}

	if err := validarArchivoDB(rutaDB); err != nil {
		if rbErr := copiarArchivo(previo, rutaDB); rbErr != nil {
			return fmt.Errorf("%w: restore inválido y rollback falló: %v", domain.ErrBackup, rbErr)
		}
		return fmt.Errorf("%w: la BD restaurada no validó, se revirtió", domain.ErrBackup)
	}

	_ = os.Remove(previo)
	s.log.Info().Str("artefacto", nombre).Msg("restore completado")
	return nil
}

func (s *Service) buscar(nombre string) (*InfoBackup, error) {
	for _, b := range buckets {
		infos, err := s.listarBucket(b)
		if err != nil {
			return nil, err
		}
		for _, info := range infos {
			if info.Nombre == nombre {
				return info, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: backup %q no encontrado", domain.ErrBackup, nombre)
}

// IniciarProgramado arranca el ciclo de backups automáticos si está habilitado.
// Tras cada corrida se reprograma: intervalo normal si salió bien, reintento
// corto si falló (además de notificar el fallo).
func (s *Service) IniciarProgramado() {
	if !s.cfg.Automatico {
		return
	}
	s.programar(time.Duration(s.cfg.IntervaloHoras) * time.Hour)
	s.log.Info().Int("intervalo_horas", s.cfg.IntervaloHoras).Msg("backups automáticos habilitados")
}

func (s *Service) programar(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(d, s.corridaProgramada)
}

func (s *Service) corridaProgramada() {
	_, err := s.CrearBackupAutomatico()
	if err != nil {
		s.log.Error().Err(err).Msg("backup automático falló")
		if s.notificador != nil {
			s.notificador.NotificarFalloBackup("automatico", err)
		}
		s.programar(time.Duration(s.cfg.ReintentoMinutos) * time.Minute)
		return
	}
	s.programar(time.Duration(s.cfg.IntervaloHoras) * time.Hour)
}

// Detener cancela el backup programado pendiente.
func (s *Service) Detener() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func comprimirArchivo(ruta string) (string, error) {
	origen, err := os.Open(ruta)
	if err != nil {
		return "", err
	}
	defer origen.Close()

	destino := ruta + ".gz"
	out, err := os.Create(destino)
	if err != nil {
		return "", err
	}
	defer out.Close()

	zw := gzip.NewWriter(out)
	if _, err := io.Copy(zw, origen); err != nil {
		zw.Close()
		_ = os.Remove(destino)
		return "", err
	}
	if err := zw.Close(); err != nil {
		_ = os.Remove(destino)
		return "", err
	}
	return destino, nil
}

func descomprimirATemporal(ruta string) (string, error) {
	origen, err := os.Open(ruta)
	if err != nil {
		return "", err
	}
	defer origen.Close()

	zr, err := gzip.NewReader(origen)
	if err != nil {
		return "", err
	}
	defer zr.Close()

	tmp, err := os.CreateTemp("", "restore_*.db")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, zr); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

func copiarArchivo(origen, destino string) error {
	in, err := os.Open(origen)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(destino)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
