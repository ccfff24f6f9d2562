package main

import (
	"database/sql"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"github.com/mkranz/taxograph/backend"
	"github.com/mkranz/taxograph/core"
	"github.com/mkranz/taxograph/logger"
	"github.com/mkranz/taxograph/orcid"
	"github.com/mkranz/taxograph/sqldb"
	"github.com/mkranz/taxograph/sqldb/mysql"
	"github.com/mkranz/taxograph/sqldb/sqlite3"
	"github.com/mkranz/taxograph/util"
	"github.com/robfig/cron/v3"
	"github.com/xo/dburl"
)

const defaultDbURL = "sqlite3:taxograph.sqlite3?_busy_timeout=10000&_journal=WAL&_sync=NORMAL&cache=shared"

type prefixedResponseWriter struct {
	http.ResponseWriter
	prefix string // without trailing slash
}

// shadows the original WriteHeader func
func (w prefixedResponseWriter) WriteHeader(statusCode int) {
	// prepend prefix to Location header, so redirects work
	if w.prefix != "" {
		if location := w.Header().Get("Location"); len(location) > 0 && location[0] == '/' { // only absolute locations
			w.Header().Set("Location", w.prefix+location)
		}
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

// prefix should be without trailing slash
func handleStrip(prefix string, handler http.Handler) {
	http.Handle(
		prefix+"/", // http mux needs trailing slash
		http.StripPrefix(
			prefix,
			http.HandlerFunc(
				func(w http.ResponseWriter, r *http.Request) {
					w = &prefixedResponseWriter{w, prefix}
					handler.ServeHTTP(w, r)
				},
			),
		),
	)
}

func main() {

	_ = godotenv.Load() // secrets may come from a .env file, missing is fine

	var dbArg string // is in both FlagSets

	// default FlagSet

	// Your reverse proxy must not strip the prefix. So if you're using nginx, the "proxy_pass" value should not end with a slash.
	var base = flag.String("base", "", "strip off this `prefix` from every HTTP request and prepend it to every link")
	var configArg = flag.String("config", "config/taxograph.ini", "read site settings from this `file`")
	flag.StringVar(&dbArg, "db", defaultDbURL, "sql database url, see github.com/xo/dburl")
	var listenAddr = flag.String("listen", "127.0.0.1:8080", "serve HTTP content at this `ip:port`")
	var pruneAfter = flag.Duration("prune-enrichers", 14*24*time.Hour, "remove enrichers which have not pinged for this `duration`")

	// init FlagSet

	var initFlags = flag.NewFlagSet("init", flag.ExitOnError)

	initFlags.StringVar(&dbArg, "db", defaultDbURL, "sql database url, see github.com/xo/dburl") // copied from above
	var initInsertEnricher = initFlags.Bool("insert-enricher", false, "creates the given enricher and prints its token")
	var initMakeAdmin = initFlags.Bool("make-admin", false, "gives admin permissions to the given user")
	var initMakeModerator = initFlags.Bool("make-moderator", false, "gives moderator permissions to the given user")
	var enricherName = initFlags.String("name", "", "specifies an enricher `name`")
	var userOrcid = initFlags.String("user", "", "specifies a user by `orcid`")

	if len(os.Args) > 1 && os.Args[1] == "init" {
		initFlags.Parse(os.Args[2:])
	} else {
		flag.Parse()
	}

	// database

	dbURL, err := dburl.Parse(dbArg)
	if err != nil {
		logger.Errorf("could not parse database url: %v", err)
		return
	}

	sqlDB, err := sql.Open(dbURL.Driver, dbURL.DSN)
	if err != nil {
		logger.Errorf("could not open sql database: %v", err)
		return
	}

	if err = sqlDB.Ping(); err != nil {
		logger.Errorf("could not ping sql database: %v", err)
		return
	}

	logger.Infof("using database %s", dbURL.String())

	// base

	*base = strings.Trim(*base, "/")
	if *base != "" {
		*base = "/" + *base
	}

	// assemble stuff

	var sessionStore scs.Store
	switch dbURL.Driver {
	case "mysql":
		sessionStore = mysql.NewSessionStore(sqlDB)
	case "sqlite3":
		sessionStore = sqlite3.NewSessionStore(sqlDB)
	default:
		logger.Errorf("unknown database backend: %s", dbURL.Driver)
		return
	}

	db := &core.CoreDB{}
	if err := db.Init(sessionStore, *base); err != nil {
		logger.Error(err)
		return
	}

	// UserDB first, the other stores prepare statements against the usr table
	db.UserDB = sqldb.NewUserDB(sqlDB)
	db.EnricherDB = sqldb.NewEnricherDB(sqlDB)
	db.SampleDB = sqldb.NewSampleDB(sqlDB)
	db.TaxonDB = sqldb.NewTaxonDB(sqlDB)
	db.SqlDB = sqlDB

	defer func() {
		logger.Info("closing database")
		sqlDB.Close()
	}()

	// init

	if initFlags.Parsed() {
		switch {
		case *initInsertEnricher:
			if *enricherName != "" {
				insertEnricher(db, *enricherName)
			}
		case *initMakeAdmin:
			if *userOrcid != "" {
				setRole(db, *userOrcid, db.SetAdministrator)
			}
		case *initMakeModerator:
			if *userOrcid != "" {
				setRole(db, *userOrcid, db.SetModerator)
			}
		}
		return
	}

	// site settings, environment wins over the ini file

	config, err := util.Ini(*configArg)
	if err != nil {
		logger.Errorf("could not read config: %v", err)
		return
	}
	var setting = func(env, key string) string {
		if v := os.Getenv(env); v != "" {
			return v
		}
		return config[key]
	}

	var oc = &orcid.Client{
		ClientID:     setting("ORCID_CLIENT_ID", "orcid-client-id"),
		ClientSecret: setting("ORCID_CLIENT_SECRET", "orcid-client-secret"),
		RedirectURL:  setting("ORCID_REDIRECT_URL", "orcid-redirect-url"),
		AuthURL:      config["orcid-auth-url"],  // empty means orcid.org
		TokenURL:     config["orcid-token-url"], // empty means orcid.org
	}
	if oc.ClientID == "" {
		logger.Warning("no ORCID client id configured, logins will fail")
	}

	// prune silent enrichers in the background

	pruner := cron.New()
	pruner.AddFunc("@every 1h", func() {
		if n, err := db.PruneEnrichers(*pruneAfter); err != nil {
			logger.Errorf("error pruning enrichers: %v", err)
		} else if n > 0 {
			logger.Infof("pruned %d silent enrichers", n)
		}
	})
	pruner.Start()
	defer pruner.Stop()

	listen(db, oc, *listenAddr, *base)
}

func insertEnricher(db *core.CoreDB, name string) {
	token, err := db.RegisterEnricher(name)
	if err != nil {
		logger.Errorf(`error creating enricher "%s": %v`, name, err)
		return
	}
	// the token is printed once and stored only as a hash
	fmt.Printf("enricher %s created, token: %s\n", name, token)
}

func setRole(db *core.CoreDB, extid string, set func(core.DBUser, bool) error) {
	user, err := db.GetUserByExternalID(extid)
	if err != nil {
		logger.Errorf("error getting user %s: %v", extid, err)
		return
	}
	if err := set(user, true); err != nil {
		logger.Errorf("error setting role: %v", err)
	}
}

func listen(db *core.CoreDB, oc *orcid.Client, addr string, base string) {

	// mux
	//
	// golang mux recovers from panics, so the program won't crash

	var waitingControllers sync.WaitGroup

	handleStrip(base+"/assets", http.FileServer(http.Dir("assets")))
	handleStrip(base+"/static", http.FileServer(http.Dir("static")))

	handleStrip(
		base,
		countRequests(&waitingControllers, backend.NewBackendRouter(db, oc, base)),
	)

	// listener and listen

	sigintChannel := make(chan os.Signal, 1)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error(err)
		return
	}

	logger.Infof("listening to %s", addr)

	httpSrv := &http.Server{
		Handler:      db.SessionManager.LoadAndSave(http.DefaultServeMux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := httpSrv.Serve(listener); err != nil {

			// don't panic, we want a graceful shutdown
			if err != http.ErrServerClosed {
				logger.Errorf("error listening: %v", err)
			}

			// ensure graceful shutdown
			sigintChannel <- os.Interrupt
		}
	}()

	// graceful shutdown

	signal.Notify(sigintChannel, os.Interrupt, syscall.SIGTERM) // SIGINT (Interrupt) or SIGTERM
	<-sigintChannel

	logger.Info("shutting down")
	httpSrv.Close()

	waitingControllers.Wait()
}

func countRequests(wg *sync.WaitGroup, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wg.Add(1)
		defer wg.Done()
		handler.ServeHTTP(w, r)
	})
}
