package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path"
	"regexp"
	"syscall"
	"time"

	"github.com/covalenthq/lumberjack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/judy2649/the-grey-pegeant/src/boot"
	"github.com/judy2649/the-grey-pegeant/src/config"
	"github.com/judy2649/the-grey-pegeant/src/db"
	"github.com/judy2649/the-grey-pegeant/src/engine"
	"github.com/judy2649/the-grey-pegeant/src/lib"
	awslib "github.com/judy2649/the-grey-pegeant/src/lib/aws"
	"github.com/judy2649/the-grey-pegeant/src/middlewares"
	"github.com/judy2649/the-grey-pegeant/src/utils"
)

const apiPrefix = "/api/v1"

var ticketEngine *engine.Engine

func getEngine() *engine.Engine {
	return ticketEngine
}

var claimCodeValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	return utils.IsClaimCode(fl.Field().String())
}

var tierNameRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z ]{0,31}$`)

var tierValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	return tierNameRegex.MatchString(fl.Field().String())
}

func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("claimcode", claimCodeValidatorFunc)
		v.RegisterValidation("tier", tierValidatorFunc)
	}
}

func setupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(middlewares.SecureHeaders)
	router.GET("/", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "ok")
	})
	return router
}

func maintenanceModeMiddleware(g *gin.Engine) *gin.Engine {
	g.Use(middlewares.Maintenance)
	return g
}

func apiv1Group(g *gin.Engine) *gin.RouterGroup {
	return g.Group(apiPrefix)
}

// apiRoutes mounts every public route under the API prefix.
func apiRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1 = eventHandlers(apiv1)
	apiv1 = paymentHandlers(apiv1)
	apiv1 = stripeHandlers(apiv1)
	apiv1 = adminHandlers(apiv1)
	return apiv1
}

func corsMiddleware(apiEnv string) gin.HandlerFunc {
	if apiEnv == "local" {
		return cors.Default()
	}
	appHost := os.Getenv("APP_HOST")
	cc := cors.DefaultConfig()
	cc.AllowMethods = append(cc.AllowMethods, "GET", "POST", "HEAD")
	cc.AllowHeaders = append(cc.AllowHeaders, "Origin", "Authorization", middlewares.CallbackSecretHeader)
	cc.AllowOriginFunc = func(origin string) bool {
		if appHost == "" {
			return false
		}
		match, _ := regexp.MatchString(appHost, origin)
		return match
	}
	cc.AllowAllOrigins = false
	return cors.New(cc)
}

func initLogger() {
	cwd, _ := os.Getwd()
	logsDir := path.Join(cwd, "logs")
	os.MkdirAll(logsDir, 0o755)
	serverLogs := path.Join(logsDir, "server.log")
	apiLogs := path.Join(logsDir, "api.log")
	gin.ForceConsoleColor()

	f, _ := os.Create(apiLogs)
	gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
	log.SetOutput(&lumberjack.Logger{
		Filename:   serverLogs,
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	})
}

func main() {
	apiEnv := os.Getenv("API_ENV")
	if apiEnv == "local" {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			panic(err)
		}
	}
	initLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if secretID := os.Getenv("AWS_SECRET_ID"); secretID != "" && utils.IsProd() {
		if err := awslib.LoadSecretsIntoEnv(ctx, secretID); err != nil {
			log.Printf("[Secrets] error loading %s: %s\n", secretID, err.Error())
		}
	}
	cfg := config.Get()

	shutdownTracer := lib.InitTracer(ctx, "the-grey-pageant-api", cfg.OTLPEndpoint, cfg.Env)
	defer shutdownTracer(context.Background())

	gdb := boot.InitDb()
	defer db.Close()
	events, closeBroker := boot.InitBroker(cfg)
	defer closeBroker()

	ticketEngine = boot.NewEngine(cfg, gdb, events)
	boot.InitScheduler(ticketEngine)
	defer boot.StopScheduler()
	boot.InitConsumers(ctx, cfg, ticketEngine, gdb)

	registerValidators()
	router := setupRouter()
	router.Use(corsMiddleware(apiEnv))
	router = maintenanceModeMiddleware(router)
	apiRoutes(router)

	srv := &http.Server{Addr: ":9090", Handler: router}
	go func() {
		var err error
		if os.Getenv("TLS_ENABLE") == "true" {
			cwd, _ := os.Getwd()
			certpath := path.Join(cwd, "certificates", "localhost.pem")
			keypath := path.Join(cwd, "certificates", "localhost-key.pem")
			err = srv.ListenAndServeTLS(certpath, keypath)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %s", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Printf("Error shutting down server: %s\n", err.Error())
	}
}
