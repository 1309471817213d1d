package consul

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/consul/api"
	"github.com/rs/zerolog"

	"github.com/dexter939/EvoAcs-sub001/pkg/config"
	"github.com/dexter939/EvoAcs-sub001/pkg/version"
)

const (
	checkInterval   = 10 * time.Second
	checkTimeout    = 5 * time.Second
	deregisterAfter = "1m"
)

// ServiceInfo describes the ACS instance announced to Consul.
type ServiceInfo struct {
	Name     string
	Address  string
	HTTPPort int
	GRPCPort int
	WSPort   int
	Tags     []string
}

// ServiceRegistry registers the ACS with the local Consul agent.
type ServiceRegistry struct {
	client     *api.Client
	datacenter string
	tags       []string
	serviceID  string
	log        zerolog.Logger
}

// NewServiceRegistry connects to the agent at cfg.Addr.
func NewServiceRegistry(cfg config.ConsulConfig, log zerolog.Logger) (*ServiceRegistry, error) {
	consulConfig := api.DefaultConfig()
	consulConfig.Address = cfg.Addr
	consulConfig.Datacenter = cfg.Datacenter

	client, err := api.NewClient(consulConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Consul client: %w", err)
	}
	if _, err := client.Status().Leader(); err != nil {
		return nil, fmt.Errorf("failed to connect to Consul: %w", err)
	}

	log.Info().Str("addr", cfg.Addr).Str("datacenter", cfg.Datacenter).Msg("🏛️ Connected to Consul")
	return &ServiceRegistry{client: client, datacenter: cfg.Datacenter, tags: cfg.Tags, log: log}, nil
}

// Register announces svc with an HTTP /health check, plus a gRPC check when svc.GRPCPort is set.
func (sr *ServiceRegistry) Register(svc ServiceInfo) error {
	if len(svc.Tags) == 0 {
		svc.Tags = sr.tags
	}
	reg := BuildRegistration(svc)
	if err := sr.client.Agent().ServiceRegister(reg); err != nil {
		return fmt.Errorf("failed to register service %s with Consul: %w", svc.Name, err)
	}
	sr.serviceID = reg.ID
	sr.log.Info().Str("service_id", reg.ID).Str("address", reg.Address).Int("port", reg.Port).Msg("🎯 Service registered with Consul")
	return nil
}

// Deregister removes the registration made by Register.
func (sr *ServiceRegistry) Deregister() error {
	if sr.serviceID == "" {
		return nil
	}
	if err := sr.client.Agent().ServiceDeregister(sr.serviceID); err != nil {
		return fmt.Errorf("failed to deregister service %s: %w", sr.serviceID, err)
	}
	sr.log.Info().Str("service_id", sr.serviceID).Msg("📤 Service deregistered from Consul")
	sr.serviceID = ""
	return nil
}

// Health checks that the Consul cluster has a leader.
func (sr *ServiceRegistry) Health() error {
	_, err := sr.client.Status().Leader()
	return err
}

// BuildRegistration turns svc into the agent registration payload.
func BuildRegistration(svc ServiceInfo) *api.AgentServiceRegistration {
	address := svc.Address
	if address == "" {
		address = localAddress()
	}

	meta := map[string]string{
		"version":      version.Version,
		"cwmp_version": version.CWMPVersion,
		"usp_version":  version.USPVersion,
	}
	if svc.GRPCPort > 0 {
		meta["grpc_port"] = strconv.Itoa(svc.GRPCPort)
	}
	if svc.WSPort > 0 {
		meta["usp_ws_port"] = strconv.Itoa(svc.WSPort)
	}

	reg := &api.AgentServiceRegistration{
		ID:      fmt.Sprintf("%s-%s-%d", svc.Name, address, svc.HTTPPort),
		Name:    svc.Name,
		Address: address,
		Port:    svc.HTTPPort,
		Tags:    svc.Tags,
		Meta:    meta,
		Checks: api.AgentServiceChecks{{
			Name:                           "http-health",
			HTTP:                           fmt.Sprintf("http://%s/health", net.JoinHostPort(address, strconv.Itoa(svc.HTTPPort))),
			Interval:                       checkInterval.String(),
			Timeout:                        checkTimeout.String(),
			DeregisterCriticalServiceAfter: deregisterAfter,
		}},
	}
	if svc.GRPCPort > 0 {
		reg.Checks = append(reg.Checks, &api.AgentServiceCheck{
			Name:                           "grpc-health",
			GRPC:                           net.JoinHostPort(address, strconv.Itoa(svc.GRPCPort)),
			Interval:                       checkInterval.String(),
			Timeout:                        checkTimeout.String(),
			DeregisterCriticalServiceAfter: deregisterAfter,
		})
	}
	return reg
}

// PortFromAddr extracts the port of a listen address such as ":7547".
func PortFromAddr(addr string) int {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 0
	}
	port, _ := strconv.Atoi(p)
	return port
}

func localAddress() string {
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "localhost"
}
