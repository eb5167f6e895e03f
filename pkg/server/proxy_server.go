package server

import (
	"fmt"

	"github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/config"
	handlers "github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/handlers/http"
	"github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/infra/prometheus"
	"github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/middleware"
	"github.com/GuilhermeFrediani/EnvolveAI.Bot/pkg/server/router"
	"github.com/sirupsen/logrus"
)

type (
	ProxyServerDI struct {
		Config              *config.Config
		Logger              *logrus.Logger
		MiddlewareTransport *middleware.Transport
		HandlerTransport    handlers.HandlerTransport
	}
	ProxyServer struct {
		*BaseServer
		middlewareTransport *middleware.Transport
		handlerTransport    handlers.HandlerTransport
	}
)

func NewProxyServer(di ProxyServerDI) *ProxyServer {
	prometheus.Initialize()

	s := &ProxyServer{
		BaseServer:          NewBaseServer(di.Config, di.Logger),
		middlewareTransport: di.MiddlewareTransport,
		handlerTransport:    di.HandlerTransport,
	}

	s.BaseServer.setupMetricsEndpoint()
	return s
}

func (s *ProxyServer) Run() error {
	proxyRouter := router.NewProxyRouter(s.middlewareTransport, s.handlerTransport, s.Config)
	if err := s.WithRouters(proxyRouter); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)
	s.Logger.WithField("addr", addr).Info("Starting proxy server")
	return s.Router.Listen(addr)
}

func (s *ProxyServer) Shutdown() error {
	return s.Router.Shutdown()
}
