package alertas

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/deleginsumos/deleginsumos/internal/domain/entity"
	"github.com/deleginsumos/deleginsumos/internal/domain/repository"
)

// Config umbrales del motor de alertas.
type Config struct {
	UmbralEntregasDia  int           // más de N entregas del mismo insumo en un día dispara alerta
	RetencionResueltas time.Duration // edad máxima de una alerta resuelta antes de purgarla
}

// Engine deriva alertas del estado actual del inventario. Las alertas viven
// solo en memoria: cada pasada re-deriva candidatas desde los repositorios y
// las funde con las activas; una clave ya presente se deja intacta (sin
// duplicado ni refresco de timestamp) hasta que alguien la resuelva.
type Engine struct {
	mu        sync.Mutex
	activas   map[string]*entity.Alerta // clave: tipo:entidadID:discriminador
	resueltas []*entity.Alerta

	insumoRepo   repository.InsumoRepository
	empleadoRepo repository.EmpleadoRepository
	entregaRepo  repository.EntregaRepository
	cfg          Config
	log          zerolog.Logger
}

// NewEngine construye el motor de alertas.
func NewEngine(
	insumoRepo repository.InsumoRepository,
	empleadoRepo repository.EmpleadoRepository,
	entregaRepo repository.EntregaRepository,
	cfg Config,
	log zerolog.Logger,
) *Engine {
	if cfg.UmbralEntregasDia <= 0 {
		cfg.UmbralEntregasDia = 10
	}
	if cfg.RetencionResueltas <= 0 {
		cfg.RetencionResueltas = 7 * 24 * time.Hour
	}
	return &Engine{
		activas:      make(map[string]*entity.Alerta),
		insumoRepo:   insumoRepo,
		empleadoRepo: empleadoRepo,
		entregaRepo:  entregaRepo,
		cfg:          cfg,
		log:          log.With().Str("componente", "alertas").Logger(),
	}
}

// ResumenVerificacion resultado de una pasada de verificación.
type ResumenVerificacion struct {
	Nuevas       int
	ActivasTotal int
	PorSeveridad map[string]int
	PorTipo      map[string]int
}

// VerificarTodas corre todos los chequeos y funde las candidatas con las
// alertas activas. Si un chequeo falla, su error se convierte en una alerta
// SISTEMA_ERROR en lugar de propagarse, para no bloquear los demás chequeos.
func (e *Engine) VerificarTodas() *ResumenVerificacion {
	var candidatas []*entity.Alerta

	chequeos := []struct {
		nombre string
		fn     func() ([]*entity.Alerta, error)
	}{
		{"stock", e.verificarStock},
		{"entregas_frecuentes", e.verificarEntregasFrecuentes},
		{"consistencia", e.verificarConsistencia},
	}
	for _, ch := range chequeos {
		derivadas, err := ch.fn()
		if err != nil {
			e.log.Error().Err(err).Str("chequeo", ch.nombre).Msg("chequeo de alertas falló")
			candidatas = append(candidatas, &entity.Alerta{
				Tipo:        entity.AlertaErrorSistema,
				Severidad:   entity.SeveridadAlta,
				Titulo:      "Error en verificación de alertas",
				Mensaje:     fmt.Sprintf("el chequeo '%s' falló: %v", ch.nombre, err),
				EntidadTipo: "sistema",
				Datos:       map[string]any{"chequeo": ch.nombre},
			})
			continue
		}
		candidatas = append(candidatas, derivadas...)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	nuevas := 0
	for _, c := range candidatas {
		clave := claveAlerta(c)
		if _, existe := e.activas[clave]; existe {
			continue
		}
		c.ID = uuid.New().String()
		c.FechaCreacion = time.Now()
		e.activas[clave] = c
		nuevas++
		e.log.Info().
			Str("tipo", c.Tipo).
			Str("severidad", c.Severidad).
			Str("titulo", c.Titulo).
			Msg("alerta creada")
	}

	resumen := &ResumenVerificacion{
		Nuevas:       nuevas,
		ActivasTotal: len(e.activas),
		PorSeveridad: make(map[string]int),
		PorTipo:      make(map[string]int),
	}
	for _, a := range e.activas {
		resumen.PorSeveridad[a.Severidad]++
		resumen.PorTipo[a.Tipo]++
	}
	return resumen
}

// Activas devuelve las alertas activas ordenadas por severidad y luego por
// fecha de creación. Sin argumentos devuelve todas; con tipos, filtra.
func (e *Engine) Activas(tipos ...string) []*entity.Alerta {
	e.mu.Lock()
	defer e.mu.Unlock()

	filtro := make(map[string]bool, len(tipos))
	for _, t := range tipos {
		filtro[t] = true
	}

	var lista []*entity.Alerta
	for _, a := range e.activas {
		if len(filtro) > 0 && !filtro[a.Tipo] {
			continue
		}
		copia := *a
		lista = append(lista, &copia)
	}
	sort.Slice(lista, func(i, j int) bool {
		oi, oj := entity.OrdenSeveridad(lista[i].Severidad), entity.OrdenSeveridad(lista[j].Severidad)
		if oi != oj {
			return oi < oj
		}
		return lista[i].FechaCreacion.Before(lista[j].FechaCreacion)
	})
	return lista
}

// Resolver marca una alerta activa como resuelta y la pasa al historial.
func (e *Engine) Resolver(id, por string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for clave, a := range e.activas {
		if a.ID != id {
			continue
		}
		a.Resuelta = true
		a.ResueltaPor = por
		a.FechaResuelta = time.Now()
		e.resueltas = append(e.resueltas, a)
		delete(e.activas, clave)
		return true
	}
	return false
}

// ResolverPorTipo resuelve en bloque todas las alertas activas de un tipo.
func (e *Engine) ResolverPorTipo(tipo, por string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	ahora := time.Now()
	for clave, a := range e.activas {
		if a.Tipo != tipo {
			continue
		}
		a.Resuelta = true
		a.ResueltaPor = por
		a.FechaResuelta = ahora
		e.resueltas = append(e.resueltas, a)
		delete(e.activas, clave)
		n++
	}
	return n
}

// LimpiarResueltas purga del historial las alertas resueltas más viejas que
// la ventana de retención. Devuelve cuántas purgó.
func (e *Engine) LimpiarResueltas() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	limite := time.Now().Add(-e.cfg.RetencionResueltas)
	restantes := e.resueltas[:0]
	purgadas := 0
	for _, a := range e.resueltas {
		if a.FechaResuelta.Before(limite) {
			purgadas++
			continue
		}
		restantes = append(restantes, a)
	}
	e.resueltas = restantes
	return purgadas
}

// NotificarFalloBackup registra una alerta de backup fallido. La llama el
// servicio de backup; el discriminador incluye el día para no acumular una
// alerta por cada reintento.
func (e *Engine) NotificarFalloBackup(operacion string, causa error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c := &entity.Alerta{
		Tipo:        entity.AlertaBackupFallido,
		Severidad:   entity.SeveridadAlta,
		Titulo:      "Backup fallido",
		Mensaje:     fmt.Sprintf("la operación de backup '%s' falló: %v", operacion, causa),
		EntidadTipo: "sistema",
		Datos: map[string]any{
			"operacion": operacion,
			"causa":     causa.Error(),
		},
	}
	clave := fmt.Sprintf("%s:0:%s", entity.AlertaBackupFallido, time.Now().Format("2006-01-02"))
	if _, existe := e.activas[clave]; existe {
		return
	}
	c.ID = uuid.New().String()
	c.FechaCreacion = time.Now()
	e.activas[clave] = c
	e.log.Warn().Str("operacion", operacion).Err(causa).Msg("alerta de backup fallido")
}

func (e *Engine) verificarStock() ([]*entity.Alerta, error) {
	insumos, err := e.insumoRepo.GetAll(true)
	if err != nil {
		return nil, err
	}

	var alertas []*entity.Alerta
	for _, i := range insumos {
		switch i.EstadoStock() {
		case entity.StockCritico:
			alertas = append(alertas, alertaStock(i, entity.AlertaStockCritico, entity.SeveridadCritica,
				"Stock agotado",
				fmt.Sprintf("el insumo '%s' no tiene unidades disponibles", i.Nombre)))
		case entity.StockBajo:
			alertas = append(alertas, alertaStock(i, entity.AlertaStockBajo, entity.SeveridadAlta,
				"Stock bajo",
				fmt.Sprintf("el insumo '%s' tiene %d unidades (mínimo %d)",
					i.Nombre, i.CantidadActual, i.CantidadMinima)))
		case entity.StockExceso:
			alertas = append(alertas, alertaStock(i, entity.AlertaStockExceso, entity.SeveridadBaja,
				"Sobre-stock",
				fmt.Sprintf("el insumo '%s' tiene %d unidades (máximo %d)",
					i.Nombre, i.CantidadActual, i.CantidadMaxima)))
		}
	}
	return alertas, nil
}

func (e *Engine) verificarEntregasFrecuentes() ([]*entity.Alerta, error) {
	insumos, err := e.insumoRepo.GetAll(true)
	if err != nil {
		return nil, err
	}

	hoy := time.Now()
	dia := hoy.Format("2006-01-02")
	var alertas []*entity.Alerta
	for _, i := range insumos {
		n, err := e.entregaRepo.CountByInsumoEnFecha(i.ID, hoy)
		if err != nil {
			return nil, err
		}
		if n <= e.cfg.UmbralEntregasDia {
			continue
		}
		alertas = append(alertas, &entity.Alerta{
			Tipo:        entity.AlertaEntregasFrecuentes,
			Severidad:   entity.SeveridadMedia,
			Titulo:      "Entregas frecuentes",
			Mensaje:     fmt.Sprintf("el insumo '%s' registra %d entregas hoy (umbral %d)", i.Nombre, n, e.cfg.UmbralEntregasDia),
			EntidadTipo: "insumo",
			EntidadID:   i.ID,
			Datos: map[string]any{
				"entregas": n,
				"umbral":   e.cfg.UmbralEntregasDia,
				// el día en el discriminador hace que un día nuevo produzca candidata fresca
				"fecha": dia,
			},
		})
	}
	return alertas, nil
}

func (e *Engine) verificarConsistencia() ([]*entity.Alerta, error) {
	insumos, err := e.insumoRepo.GetAll(false)
	if err != nil {
		return nil, err
	}

	var alertas []*entity.Alerta
	for _, i := range insumos {
		if i.CantidadActual < 0 {
			alertas = append(alertas, inconsistencia("insumo", i.ID, "stock_negativo",
				fmt.Sprintf("el insumo '%s' tiene stock negativo (%d)", i.Nombre, i.CantidadActual)))
		}
		if i.CantidadMinima > i.CantidadMaxima && i.CantidadMaxima > 0 {
			alertas = append(alertas, inconsistencia("insumo", i.ID, "umbrales_invertidos",
				fmt.Sprintf("el insumo '%s' tiene mínimo %d mayor que máximo %d",
					i.Nombre, i.CantidadMinima, i.CantidadMaxima)))
		}
	}

	empleados, err := e.empleadoRepo.GetAll(false)
	if err != nil {
		return nil, err
	}
	for _, emp := range empleados {
		if strings.TrimSpace(emp.Cedula) == "" {
			alertas = append(alertas, inconsistencia("empleado", emp.ID, "cedula_vacia",
				fmt.Sprintf("el empleado '%s' no tiene cédula registrada", emp.NombreCompleto)))
		}
	}
	return alertas, nil
}

func alertaStock(i *entity.Insumo, tipo, severidad, titulo, mensaje string) *entity.Alerta {
	return &entity.Alerta{
		Tipo:        tipo,
		Severidad:   severidad,
		Titulo:      titulo,
		Mensaje:     mensaje,
		EntidadTipo: "insumo",
		EntidadID:   i.ID,
		Datos: map[string]any{
			"cantidad_actual": i.CantidadActual,
			"cantidad_minima": i.CantidadMinima,
			"cantidad_maxima": i.CantidadMaxima,
		},
	}
}

func inconsistencia(entidadTipo string, id int64, motivo, mensaje string) *entity.Alerta {
	return &entity.Alerta{
		Tipo:        entity.AlertaInconsistencia,
		Severidad:   entity.SeveridadAlta,
		Titulo:      "Inconsistencia de datos",
		Mensaje:     mensaje,
		EntidadTipo: entidadTipo,
		EntidadID:   id,
		Datos:       map[string]any{"motivo": motivo},
	}
}

// claveAlerta arma la clave de deduplicación (tipo, entidad, discriminador).
func claveAlerta(a *entity.Alerta) string {
	disc := ""
	if a.Datos != nil {
		if fecha, ok := a.Datos["fecha"].(string); ok {
			disc = fecha
		} else if motivo, ok := a.Datos["motivo"].(string); ok {
			disc = motivo
		} else if chequeo, ok := a.Datos["chequeo"].(string); ok {
			disc = chequeo
		}
	}
	return fmt.Sprintf("%s:%d:%s", a.Tipo, a.EntidadID, disc)
}
