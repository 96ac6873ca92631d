package archive

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	imapv2 "github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/nhle/epaper/internal/backend"
)

const dialTimeout = 15 * time.Second

// Options configure the IMAP connection used to file sent copies.
type Options struct {
	Host               string
	Port               int
	Username           string
	Password           string
	UseTLS             bool
	InsecureSkipVerify bool
	Folder             string
}

// IMAPArchiver appends a copy of every sent email to an IMAP folder. It
// dials per message; sends are rare and user driven.
type IMAPArchiver struct {
	opts   Options
	logger *slog.Logger
}

// NewIMAPArchiver validates opts and returns an archiver.
func NewIMAPArchiver(opts Options, logger *slog.Logger) (*IMAPArchiver, error) {
	if opts.Host == "" {
		return nil, fmt.Errorf("imap host is empty")
	}
	if opts.Port <= 0 {
		return nil, fmt.Errorf("imap port must be positive")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IMAPArchiver{opts: opts, logger: logger}, nil
}

// Archive files sub in the configured folder.
func (a *IMAPArchiver) Archive(ctx context.Context, sub backend.EmailSubmission, sentAt time.Time) error {
	raw, err := BuildMessage(sub, sentAt)
	if err != nil {
		return err
	}

	client, cleanup, err := a.dial(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := a.ensureMailbox(client); err != nil {
		return err
	}
	if err := a.appendMessage(client, raw, sentAt); err != nil {
		return fmt.Errorf("archiving to %s: %w", a.folder(), err)
	}

	a.logger.Debug("archived sent email", "folder", a.folder(), "to", sub.To, "bytes", len(raw))
	return nil
}

func (a *IMAPArchiver) dial(ctx context.Context) (*imapclient.Client, func(), error) {
	address := net.JoinHostPort(a.opts.Host, strconv.Itoa(a.opts.Port))

	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, nil, fmt.Errorf("dial imap %s: %w", address, err)
	}

	if a.opts.UseTLS {
		tlsConn := tls.Client(conn, &tls.Config{
			ServerName:         a.opts.Host,
			InsecureSkipVerify: a.opts.InsecureSkipVerify,
		})
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("tls handshake with %s: %w", address, err)
		}
		conn = tlsConn
	}

	client := imapclient.New(conn, &imapclient.Options{})

	// A stalled server is cut off when ctx ends.
	stopClose := context.AfterFunc(ctx, func() {
		_ = client.Close()
	})

	if err := client.Login(a.opts.Username, a.opts.Password).Wait(); err != nil {
		stopClose()
		_ = client.Close()
		return nil, nil, fmt.Errorf("imap login failed: %w", err)
	}

	cleanup := func() {
		stopClose()
		if ctx.Err() == nil {
			if err := client.Logout().Wait(); err != nil {
				a.logger.Warn("imap logout failed", "err", err)
			}
		}
		_ = client.Close()
	}
	return client, cleanup, nil
}

func (a *IMAPArchiver) ensureMailbox(client *imapclient.Client) error {
	err := client.Create(a.folder(), nil).Wait()
	if err == nil {
		a.logger.Info("imap mailbox created", "mailbox", a.folder())
		return nil
	}

	var respErr *imapv2.Error
	if errors.As(err, &respErr) && respErr.Code == imapv2.ResponseCodeAlreadyExists {
		return nil
	}
	return fmt.Errorf("ensure mailbox %s: %w", a.folder(), err)
}

func (a *IMAPArchiver) appendMessage(client *imapclient.Client, raw []byte, sentAt time.Time) error {
	cmd := client.Append(a.folder(), int64(len(raw)), &imapv2.AppendOptions{
		Flags: []imapv2.Flag{imapv2.FlagSeen},
		Time:  sentAt,
	})

	if _, err := cmd.Write(raw); err != nil {
		_ = cmd.Close()
		return fmt.Errorf("append write: %w", err)
	}
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("append close: %w", err)
	}
	if _, err := cmd.Wait(); err != nil {
		return fmt.Errorf("append wait: %w", err)
	}
	return nil
}

func (a *IMAPArchiver) folder() string {
	if a.opts.Folder == "" {
		return "Sent"
	}
	return a.opts.Folder
}
