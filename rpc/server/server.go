package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/Jayke770/stablebot-worker/log"
	"github.com/Jayke770/stablebot-worker/params"
	"github.com/Jayke770/stablebot-worker/rpc/restapi"
)

// StartAPIServer start api server
func StartAPIServer() {
	router := initRouter()

	apiPort := params.GetAPIPort()
	var allowedOrigins []string
	if apiServer := params.GetConfig().APIServer; apiServer != nil {
		allowedOrigins = apiServer.AllowedOrigins
	}

	corsOptions := []handlers.CORSOption{
		handlers.AllowedMethods([]string{"GET"}),
	}
	if len(allowedOrigins) != 0 {
		corsOptions = append(corsOptions,
			handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type"}),
			handlers.AllowedOrigins(allowedOrigins),
		)
	}

	log.Info("REST API service listen and serving", "port", apiPort, "allowedOrigins", allowedOrigins)
	svr := http.Server{
		Addr:         fmt.Sprintf(":%v", apiPort),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		Handler:      handlers.CORS(corsOptions...)(router),
	}
	go func() {
		if err := svr.ListenAndServe(); err != nil {
			log.Error("ListenAndServe error", "err", err)
		}
	}()
}

func initRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/serverinfo", restapi.ServerInfoHandler).Methods("GET")
	r.HandleFunc("/versioninfo", restapi.VersionInfoHandler).Methods("GET")
	r.HandleFunc("/statistics", restapi.StatisticsHandler).Methods("GET")
	r.HandleFunc("/bridge/pending", restapi.GetPendingHandler).Methods("GET")
	r.HandleFunc("/bridge/{bridgeid}", restapi.GetBridgeHandler).Methods("GET")

	return r
}
