package main

import (
	"github.com/gorilla/mux"
)

// setupRoutes configures all HTTP routes for the API
func setupRoutes(router *mux.Router, a *app) {
	// Coordinated lookup: cache, single-flight, remote then native
	router.HandleFunc("/lyrics", a.getLyrics).Methods("GET")

	// Direct provider access, bypasses the coordinator
	router.HandleFunc("/providers", a.listProviders).Methods("GET")
	router.HandleFunc("/providers/{name}/lyrics", a.getProviderLyrics).Methods("GET")

	// Cache management endpoints
	router.HandleFunc("/cache", a.getCacheDump).Methods("GET")
	router.HandleFunc("/cache/clear", a.clearCache).Methods("GET", "POST")
	router.HandleFunc("/cache/invalidate", a.invalidateCache).Methods("GET", "POST", "DELETE")

	// Health and stats endpoints
	router.HandleFunc("/health", a.getHealthStatus)
	router.HandleFunc("/stats", a.getStats)

	// Circuit breaker endpoints
	router.HandleFunc("/circuit-breaker", a.getCircuitBreakerStatus)
	router.HandleFunc("/circuit-breaker/reset", a.resetCircuitBreaker).Methods("GET", "POST")

	// Help endpoint
	router.HandleFunc("/", helpHandler)
}
