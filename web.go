package main

import (
	"context"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

func robotsHandler(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("User-agent: *\nDisallow: /\n\n\n"))
}

func createRouter(exitchan <-chan struct{}) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/robots.txt", robotsHandler).Methods("GET")

	router.HandleFunc("/tiles/{world}/{dim}/{variant}/{rx:-?[0-9]+}/{rz:-?[0-9]+}.png", tileHandler).Methods("GET")
	router.HandleFunc("/tiles/{world}/{dim}/{rx:-?[0-9]+}/{rz:-?[0-9]+}.png", tileHandler).Methods("GET")

	router.HandleFunc("/api/v1/worlds", apiHandle(apiListWorlds)).Methods("GET")
	router.HandleFunc("/api/v1/worlds/{world}/dims", apiHandle(apiListDimensions)).Methods("GET")
	router.HandleFunc("/api/v1/worlds/{world}/{dim}/regions", apiHandle(apiListRegions)).Methods("GET")

	router.HandleFunc("/api/v1/renderers", apiHandle(apiListRenderers)).Methods("GET")
	router.HandleFunc("/api/v1/colors", apiHandle(apiColors)).Methods("GET")
	router.HandleFunc("/api/v1/status", apiHandle(apiStatus)).Methods("GET")

	router.HandleFunc("/api/v1/storages", apiHandle(apiStoragesGET)).Methods("GET")
	router.HandleFunc("/api/v1/storages/{storage}/reinit", apiHandle(apiStorageReinit)).Methods("GET")

	router.HandleFunc("/api/v1/ws", wsClientHandlerWrapper(exitchan))

	router.HandleFunc("/debug/chunk/{world}/{dim}/{cx:-?[0-9]+}/{cz:-?[0-9]+}", apiHandle(chunkInfoHandler)).Methods("GET")
	router.HandleFunc("/debug/pprof/", pprof.Index)
	router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	router.HandleFunc("/debug/pprof/profile", pprof.Profile)
	router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	router.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	router.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	router.Handle("/debug/pprof/allocs", pprof.Handler("allocs"))

	router1 := handlers.ProxyHeaders(router)
	router2 := handlers.CompressHandler(router1)
	router3 := handlers.CustomLoggingHandler(os.Stdout, router2, customLogger)
	router4 := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(router3)
	return router4
}

func runWeb(exitchan <-chan struct{}) {
	addr := cfg.GetDSString("0.0.0.0:3002", "web", "listen_addr")
	if addr == "" {
		log.Println("Not starting web server because listen address is empty")
		<-exitchan
		return
	}
	websrv := http.Server{
		Addr:    addr,
		Handler: createRouter(exitchan),
	}
	log.Println("Web server listens on " + addr)
	go func() {
		if err := websrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Web server returned an error: %s\n", err)
			mainCtxCancel()
		}
	}()
	<-exitchan
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := websrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown failed: %+v", err)
	}
}
