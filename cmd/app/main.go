package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deleginsumos/deleginsumos/internal/application/alertas"
	"github.com/deleginsumos/deleginsumos/internal/application/backup"
	"github.com/deleginsumos/deleginsumos/internal/application/empleados"
	"github.com/deleginsumos/deleginsumos/internal/application/entregas"
	"github.com/deleginsumos/deleginsumos/internal/application/insumos"
	"github.com/deleginsumos/deleginsumos/internal/application/reportes"
	"github.com/deleginsumos/deleginsumos/internal/infrastructure/report"
	"github.com/deleginsumos/deleginsumos/internal/infrastructure/sqlite"
	"github.com/deleginsumos/deleginsumos/pkg/config"
	"github.com/deleginsumos/deleginsumos/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
	log.Info().Str("app", cfg.App.Name).Str("env", cfg.App.Env).Msg("iniciando")

	// Almacenamiento y esquema
	store, err := sqlite.Open(cfg.DB.Ruta, log.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("no se pudo abrir la base de datos")
	}
	defer store.Close()

	migrator := sqlite.NewMigrator(store, log.Zerolog())
	if err := migrator.InitializeDatabase(); err != nil {
		// esquema incompleto tras migrar = almacenamiento corrupto; no se reintenta
		log.Fatal().Err(err).Msg("inicialización de esquema falló")
	}

	// Repositorios sobre el store (las transacciones construyen los suyos)
	insumoRepo := sqlite.NewInsumoRepository(store)
	empleadoRepo := sqlite.NewEmpleadoRepository(store)
	entregaRepo := sqlite.NewEntregaRepository(store)
	txRunner := sqlite.NewTxRunner(store)

	// Casos de uso
	insumoUC := insumos.NewInsumoUseCase(insumoRepo)
	empleadoUC := empleados.NewEmpleadoUseCase(empleadoRepo)
	entregaUC := entregas.NewEntregaUseCase(txRunner, entregaRepo, insumoRepo, empleadoRepo)

	// Resumen de arranque
	if lista, err := insumoUC.Listar(true); err == nil {
		log.Info().Int("insumos_activos", len(lista)).Msg("inventario cargado")
	}
	if lista, err := empleadoUC.Listar(true); err == nil {
		log.Info().Int("empleados_activos", len(lista)).Msg("empleados cargados")
	}
	if est, err := entregaUC.Estadisticas(); err == nil {
		log.Info().
			Int("total", est.TotalEntregas).
			Int("hoy", est.EntregasHoy).
			Msg("estadísticas de entregas")
	}

	// Motor de alertas
	engine := alertas.NewEngine(insumoRepo, empleadoRepo, entregaRepo, alertas.Config{
		UmbralEntregasDia:  cfg.Alertas.UmbralEntregasDia,
		RetencionResueltas: time.Duration(cfg.Alertas.RetencionDias) * 24 * time.Hour,
	}, log.Zerolog())

	// Backups
	backupSvc := backup.NewService(store, backup.Config{
		Directorio:       cfg.Backup.Directorio,
		Automatico:       cfg.Backup.Automatico,
		IntervaloHoras:   cfg.Backup.IntervaloHoras,
		MaxDiarios:       cfg.Backup.MaxDiarios,
		MaxSemanales:     cfg.Backup.MaxSemanales,
		ReintentoMinutos: cfg.Backup.ReintentoMinutos,
	}, engine, log.Zerolog())
	backupSvc.IniciarProgramado()
	defer backupSvc.Detener()

	// Reportes: SIGUSR1 genera el Excel de inventario y el PDF de entregas del día
	reporteUC := reportes.NewReporteUseCase(
		insumoRepo, entregaRepo,
		report.NewMarotoPDFGenerator(), report.NewExcelReportGenerator(),
		cfg.Reportes.Directorio,
	)
	reportar := make(chan os.Signal, 1)
	signal.Notify(reportar, syscall.SIGUSR1)
	go func() {
		for range reportar {
			if ruta, err := reporteUC.ReporteInventarioExcel(); err == nil {
				log.Info().Str("ruta", ruta).Msg("reporte de inventario generado")
			} else {
				log.Error().Err(err).Msg("reporte de inventario falló")
			}
			hoy := time.Now()
			if ruta, err := reporteUC.ReporteEntregasPDF(hoy, hoy); err == nil {
				log.Info().Str("ruta", ruta).Msg("reporte de entregas generado")
			} else {
				log.Error().Err(err).Msg("reporte de entregas falló")
			}
		}
	}()

	// Verificación periódica de alertas
	ticker := time.NewTicker(time.Duration(cfg.Alertas.VerificacionMinutos) * time.Minute)
	defer ticker.Stop()
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				resumen := engine.VerificarTodas()
				engine.LimpiarResueltas()
				log.Debug().
					Int("nuevas", resumen.Nuevas).
					Int("activas", resumen.ActivasTotal).
					Msg("verificación de alertas")
			case <-done:
				return
			}
		}
	}()

	resumen := engine.VerificarTodas()
	log.Info().Int("alertas_activas", resumen.ActivasTotal).Msg("verificación inicial de alertas")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	close(done)
	log.Info().Msg("apagando")
}
