// pkg/object/sftp.go

package object

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const defaultSSHPort = "22"

var sshSessions = newRegistry[*ssh.Client]()

type shrinker interface {
	shrink(path string, newLength int64) error
}

// execShrinker truncates with a `truncate` command over a separate ssh exec channel.
type execShrinker struct {
	client *ssh.Client
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func (e *execShrinker) shrink(path string, newLength int64) error {
	ses, err := e.client.NewSession()
	if err != nil {
		return unavailable("exec", err)
	}
	defer ses.Close()
	var stderr bytes.Buffer
	ses.Stderr = &stderr
	cmd := fmt.Sprintf("truncate -s %d %s", newLength, shellQuote(path))
	err = execResult(ses.Run(cmd))
	if errors.Is(err, ErrUnsupportedShrink) {
		logger.Debugf("%s: %s: %s", cmd, err, strings.TrimSpace(stderr.String()))
	}
	return err
}

// execResult classifies the result of a remote command: a command that ran and
// failed means the server can not truncate, anything else is a transport failure.
func execResult(err error) error {
	var exitErr *ssh.ExitError
	var missing *ssh.ExitMissingError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &exitErr):
		return errors.Wrapf(ErrUnsupportedShrink, "exit status %d", exitErr.ExitStatus())
	case errors.As(err, &missing):
		return errors.Wrap(ErrUnsupportedShrink, "no exit status")
	default:
		return unavailable("exec", err)
	}
}

// setstatShrinker truncates with an SFTP SETSTAT request carrying the new size.
type setstatShrinker struct {
	client *sftp.Client
}

func (s *setstatShrinker) shrink(path string, newLength int64) error {
	return setstatResult(s.client.Truncate(path, newLength))
}

func setstatResult(err error) error {
	var se *sftp.StatusError
	if errors.As(err, &se) && se.FxCode() == sftp.ErrSSHFxOpUnsupported {
		return errors.Wrap(ErrUnsupportedShrink, se.Error())
	}
	return unavailable("setstat", err)
}

type noShrinker struct{}

func (noShrinker) shrink(path string, newLength int64) error {
	return ErrUnsupportedShrink
}

type sftpStorage struct {
	addr     string // user@host:port, empty when the client is not from sshSessions
	path     string
	readOnly bool
	client   *sftp.Client
	shrinker shrinker
	fp       *sftp.File
	closed   bool
}

func (s *sftpStorage) String() string {
	if s.addr == "" {
		return fmt.Sprintf("sftp://%s", s.path)
	}
	return fmt.Sprintf("sftp://%s%s", s.addr, s.path)
}

// handle opens the remote file on first use.
func (s *sftpStorage) handle() (*sftp.File, error) {
	if s.closed {
		return nil, errClosed
	}
	if s.fp != nil {
		return s.fp, nil
	}
	flags := os.O_RDWR | os.O_CREATE
	if s.readOnly {
		flags = os.O_RDONLY
	}
	fp, err := s.client.OpenFile(s.path, flags)
	if err != nil {
		return nil, unavailable("open "+s.path, err)
	}
	s.fp = fp
	return fp, nil
}

func (s *sftpStorage) FetchChunk(off int64, capacity int) ([]byte, error) {
	fp, err := s.handle()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, capacity)
	n, err := fp.ReadAt(buf, off)
	if err != nil && err != io.EOF {
		return nil, unavailable("read", err)
	}
	return buf[:n], nil
}

func (s *sftpStorage) PushChunk(off int64, data []byte) error {
	if s.readOnly {
		return ErrReadOnly
	}
	fp, err := s.handle()
	if err != nil {
		return err
	}
	_, err = fp.WriteAt(data, off)
	return unavailable("write", err)
}

func (s *sftpStorage) Grow(newLength int64) error {
	if newLength <= 0 {
		return nil
	}
	return s.PushChunk(newLength-1, []byte{0})
}

func (s *sftpStorage) Shrink(newLength int64) error {
	if s.readOnly {
		return ErrReadOnly
	}
	if s.closed {
		return errClosed
	}
	return s.shrinker.shrink(s.path, newLength)
}

func (s *sftpStorage) Length() (int64, error) {
	fp, err := s.handle()
	if err != nil {
		return 0, err
	}
	fi, err := fp.Stat()
	if err != nil {
		return 0, unavailable("stat", err)
	}
	return fi.Size(), nil
}

func (s *sftpStorage) Close() error {
	if s.closed {
		return errClosed
	}
	s.closed = true
	var err error
	if s.fp != nil {
		err = s.fp.Close()
	}
	if cerr := s.client.Close(); err == nil && cerr != nil && cerr != io.EOF {
		err = cerr
	}
	if s.addr != "" {
		if rerr := sshSessions.release(s.addr); err == nil {
			err = rerr
		}
	}
	return err
}

func (s *sftpStorage) Remove() error {
	if s.closed {
		return errClosed
	}
	return s.client.Remove(s.path)
}

// NewSftp returns a storage for path over an already connected SFTP client.
// The storage owns the client and closes it on Close.
func NewSftp(client *sftp.Client, path string, readOnly bool, shrinkMode string) (Storage, error) {
	s := &sftpStorage{path: path, readOnly: readOnly, client: client}
	switch shrinkMode {
	case "setstat":
		s.shrinker = &setstatShrinker{client}
	case "none":
		s.shrinker = noShrinker{}
	default:
		return nil, fmt.Errorf("shrink mode %q needs an ssh connection", shrinkMode)
	}
	return s, nil
}

// parseKey parses a PEM private key, decrypting it with SFTP_KEY_PASSPHRASE if needed.
func parseKey(key []byte) (ssh.Signer, error) {
	signer, err := ssh.ParsePrivateKey(key)
	var missing *ssh.PassphraseMissingError
	if errors.As(err, &missing) {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(key, []byte(os.Getenv("SFTP_KEY_PASSPHRASE")))
	}
	return signer, err
}

func sshConfig(u *url.URL, conf *Config) (*ssh.ClientConfig, error) {
	user := u.User.Username()
	if user == "" {
		user = os.Getenv("USER")
	}
	var auths []ssh.AuthMethod
	if pass, ok := u.User.Password(); ok {
		auths = append(auths, ssh.Password(pass))
	} else if pass := os.Getenv("SFTP_PASSWORD"); pass != "" {
		auths = append(auths, ssh.Password(pass))
	}
	if conf.Identity != "" {
		key, err := os.ReadFile(conf.Identity)
		if err != nil {
			return nil, fmt.Errorf("read identity %s: %s", conf.Identity, err)
		}
		signer, err := parseKey(key)
		if err != nil {
			return nil, fmt.Errorf("parse identity %s: %s", conf.Identity, err)
		}
		auths = append(auths, ssh.PublicKeys(signer))
	}
	if key := os.Getenv("SFTP_PRIVATE_KEY"); key != "" {
		signer, err := parseKey([]byte(key))
		if err != nil {
			return nil, fmt.Errorf("parse SFTP_PRIVATE_KEY: %s", err)
		}
		auths = append(auths, ssh.PublicKeys(signer))
	}
	if len(auths) == 0 {
		return nil, fmt.Errorf("no password or identity for %s", u.Host)
	}
	hostKey := ssh.InsecureIgnoreHostKey()
	if conf.KnownHosts != "" {
		cb, err := knownhosts.New(conf.KnownHosts)
		if err != nil {
			return nil, fmt.Errorf("load known hosts %s: %s", conf.KnownHosts, err)
		}
		hostKey = cb
	}
	return &ssh.ClientConfig{
		User:            user,
		Auth:            auths,
		HostKeyCallback: hostKey,
		Timeout:         conf.Timeout,
	}, nil
}

func newSftp(u *url.URL, conf *Config) (Storage, error) {
	if u.Path == "" {
		return nil, fmt.Errorf("sftp storage needs a path: %s", u)
	}
	cfg, err := sshConfig(u, conf)
	if err != nil {
		return nil, err
	}
	host := u.Host
	if u.Port() == "" {
		host = net.JoinHostPort(u.Hostname(), defaultSSHPort)
	}
	addr := cfg.User + "@" + host
	conn, err := sshSessions.acquire(addr, func() (*ssh.Client, error) {
		return ssh.Dial("tcp", host, cfg)
	})
	if err != nil {
		return nil, unavailable("connect "+addr, err)
	}
	client, err := sftp.NewClient(conn)
	if err != nil {
		_ = sshSessions.release(addr)
		return nil, unavailable("sftp "+addr, err)
	}
	s := &sftpStorage{addr: addr, path: u.Path, readOnly: conf.ReadOnly, client: client}
	switch conf.Shrink {
	case "", "exec":
		s.shrinker = &execShrinker{conn}
	case "setstat":
		s.shrinker = &setstatShrinker{client}
	case "none":
		s.shrinker = noShrinker{}
	default:
		_ = s.Close()
		return nil, fmt.Errorf("invalid shrink mode: %s", conf.Shrink)
	}
	return s, nil
}

func init() {
	Register("sftp", newSftp)
}

var _ Storage = &sftpStorage{}
