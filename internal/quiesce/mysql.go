package quiesce

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/snapbackup/snap-backup/internal/store/constants"
)

// Options addresses the MySQL server. Address (host:port) takes precedence
// over Socket.
type Options struct {
	User     string
	Password string
	Socket   string
	Address  string
}

func (o Options) config() *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.User = o.User
	cfg.Passwd = o.Password

	if strings.TrimSpace(o.Address) != "" {
		cfg.Net = "tcp"
		cfg.Addr = o.Address
	} else {
		cfg.Net = "unix"
		cfg.Addr = o.Socket
		if cfg.Addr == "" {
			cfg.Addr = constants.DefaultMySQLSocket
		}
	}
	return cfg
}

// DSN renders the driver connection string.
func (o Options) DSN() string {
	return o.config().FormatDSN()
}

// MySQL returns a Coordinator that locks a MySQL or MariaDB server. The
// account needs the RELOAD privilege.
func MySQL(opts Options) *Coordinator {
	return &Coordinator{
		Open: func(ctx context.Context) (Session, error) {
			connector, err := mysql.NewConnector(opts.config())
			if err != nil {
				return nil, err
			}

			db := sql.OpenDB(connector)
			db.SetMaxOpenConns(1)

			conn, err := db.Conn(ctx)
			if err != nil {
				_ = db.Close()
				return nil, err
			}
			return &pinnedConn{Conn: conn, db: db}, nil
		},
	}
}

// pinnedConn closes the pool together with its only connection.
type pinnedConn struct {
	*sql.Conn
	db *sql.DB
}

func (p *pinnedConn) Close() error {
	connErr := p.Conn.Close()
	dbErr := p.db.Close()
	if connErr != nil || dbErr != nil {
		return fmt.Errorf("closing database session: %w", errors.Join(connErr, dbErr))
	}
	return nil
}
