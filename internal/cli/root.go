package cli

import (
	"context"
	"errors"
	"fmt"

	"bamazon/internal/app"
	grpcdelivery "bamazon/internal/delivery/grpc"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// StoreOpener returns the catalog store for one command invocation.
type StoreOpener func(ctx context.Context) (app.Store, func() error, error)

// Dialer connects to a running bamazon gRPC server.
type Dialer func(ctx context.Context, target string) (grpc.ClientConnInterface, func() error, error)

type Option func(*session)

// WithDialer replaces the default insecure gRPC dialer used by --remote.
func WithDialer(d Dialer) Option {
	return func(s *session) { s.dial = d }
}

func dialInsecure(_ context.Context, target string) (grpc.ClientConnInterface, func() error, error) {
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, err
	}
	return conn, conn.Close, nil
}

// session holds what a running command needs. store is nil when the command
// talks to a remote server.
type session struct {
	open     StoreOpener
	dial     Dialer
	remote   string
	log      *logrus.Logger
	store    app.Store
	useCases app.UseCases
}

var errRemoteSeed = errors.New("seed writes to a local store and cannot be used with --remote")

func (s *session) connect(ctx context.Context) (func() error, error) {
	if s.remote != "" {
		conn, closeConn, err := s.dial(ctx, s.remote)
		if err != nil {
			return nil, fmt.Errorf("connecting to %s: %w", s.remote, err)
		}
		client := grpcdelivery.NewCatalogClient(conn)
		s.store = nil
		s.useCases = app.UseCases{Catalog: client, Purchase: client, Department: client}
		s.log.Debugf("Using remote catalog at %s", s.remote)
		return closeConn, nil
	}

	store, closeStore, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	s.store = store
	s.useCases = app.NewUseCases(store, s.log)
	return closeStore, nil
}

// run wraps a command body so the store is opened before it and closed after
// it, whether or not the body fails.
func (s *session) run(fn func(cmd *cobra.Command) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) (err error) {
		closeStore, err := s.connect(cmd.Context())
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, closeStore())
		}()
		return fn(cmd)
	}
}

func NewRootCommand(open StoreOpener, logger *logrus.Logger, opts ...Option) *cobra.Command {
	s := &session{open: open, dial: dialInsecure, log: logger}
	for _, opt := range opts {
		opt(s)
	}

	root := &cobra.Command{
		Use:           "bamazonctl",
		Short:         "Bamazon storefront and supervisor console",
		Long:          `Browse and buy products as a customer, or review department profit and add departments as a supervisor.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&s.remote, "remote", "", "address of a running bamazon gRPC server (host:port); uses the configured database when empty")

	root.AddCommand(newCustomerCommand(s))
	root.AddCommand(newSupervisorCommand(s))
	root.AddCommand(newSeedCommand(s))
	return root
}

func say(cmd *cobra.Command, text string) {
	fmt.Fprintln(cmd.OutOrStdout(), text)
}
