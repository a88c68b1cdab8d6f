// Package restapi serves the read only status endpoints. The worker
// never accepts bridge requests over http, those come in through the
// job queue, the api exists for dashboards and operators.
package restapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Jayke770/stablebot-worker/mongodb"
	"github.com/Jayke770/stablebot-worker/params"
)

func writeResponse(w http.ResponseWriter, resp interface{}, err error) {
	if err == nil {
		jsonData, _ := json.Marshal(resp)
		w.Header().Set("Content-Type", "application/json")
		w.Write(jsonData)
	} else {
		fmt.Fprintln(w, err.Error())
	}
}

// ServerInfo server info of this worker
type ServerInfo struct {
	Identifier string
	ConfigID   string
	Version    string
	Chains     []string
}

// ServerInfoHandler handle get server info
func ServerInfoHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	info := &ServerInfo{
		Identifier: params.GetIdentifier(),
		ConfigID:   params.GetConfigID(),
		Version:    params.VersionWithMeta,
	}
	for _, chain := range params.GetChains() {
		info.Chains = append(info.Chains, chain.ChainID)
	}
	writeResponse(w, info, nil)
}

// VersionInfoHandler handle get version info
func VersionInfoHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	writeResponse(w, params.VersionWithMeta, nil)
}

// GetBridgeHandler handle get bridge by id
func GetBridgeHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	w.WriteHeader(http.StatusOK)
	res, err := mongodb.FindBridge(vars["bridgeid"])
	writeResponse(w, res, err)
}

// PendingInfo pending bridge statistics
type PendingInfo struct {
	PendingCount int
}

// GetPendingHandler handle get pending bridge count
func GetPendingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	count, err := mongodb.CountBridgesWithStatus(mongodb.StatusPending)
	writeResponse(w, &PendingInfo{PendingCount: count}, err)
}

// StatisticsHandler handle get settlement statistics
func StatisticsHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	res, err := mongodb.FindBridgeConfig(params.GetConfigID())
	writeResponse(w, res, err)
}
