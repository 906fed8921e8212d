// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-break-timer/pkg/handler"
)

// HTTPServer serves the REST API used by the browser extension.
type HTTPServer struct {
	server   *http.Server
	listener net.Listener
	port     int
	handler  *handler.HTTPHandler
}

// NewHTTPServer creates a new REST server instance.
func NewHTTPServer(port int, h *handler.HTTPHandler) *HTTPServer {
	return &HTTPServer{
		port:    port,
		handler: h,
	}
}

// Setup builds the gin router.
func (s *HTTPServer) Setup(environment string) error {
	if environment != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: handler.NewRouter(s.handler),
	}
	return nil
}

// Start binds the listening port.
func (s *HTTPServer) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}
	s.listener = lis
	return nil
}

// Serve blocks serving REST requests until Shutdown is called.
func (s *HTTPServer) Serve() error {
	logrus.Infof("HTTP server listening on port %d", s.port)
	if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down HTTP server...")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	logrus.Info("HTTP server stopped")
	return nil
}
