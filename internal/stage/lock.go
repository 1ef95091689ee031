package stage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dits/internal/ditserr"

	"github.com/google/uuid"
)

// staleAfter bounds how long a lockfile is honored before a holder is
// presumed dead (crashed process, killed container) and the lock is
// reclaimed. Not a configurable setting; a fixed safety net.
const staleAfter = 10 * time.Minute

// Lock is the single-writer coordination primitive at <.dits>/index.lock.
// Token embeds the holder's PID and a random id, which Release uses to
// confirm the lockfile is still its own. Whether a lock is stale is
// judged by the lockfile's age alone (staleAfter).
type Lock struct {
	path  string
	token string
}

// Acquire creates the lockfile exclusively, reclaiming it first if it is
// older than staleAfter.
func Acquire(dir string) (*Lock, error) {
	path := filepath.Join(dir, "index.lock")
	token := fmt.Sprintf("%d:%s", os.Getpid(), uuid.NewString())

	if err := tryCreate(path, token); err != nil {
		if !os.IsExist(err) {
			return nil, fmt.Errorf("stage: create lock: %w", err)
		}
		if reclaimIfStale(path) {
			if err := tryCreate(path, token); err != nil {
				return nil, fmt.Errorf("stage: index busy: %w", ditserr.ErrIndexBusy)
			}
		} else {
			return nil, fmt.Errorf("stage: index busy: %w", ditserr.ErrIndexBusy)
		}
	}
	return &Lock{path: path, token: token}, nil
}

func tryCreate(path, token string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(token)
	return err
}

func reclaimIfStale(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if time.Since(info.ModTime()) < staleAfter {
		return false
	}
	return os.Remove(path) == nil
}

// Release removes the lockfile, but only if it still holds this Lock's
// token — guards against releasing a lock another process reclaimed after
// deeming this one stale.
func (l *Lock) Release() error {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if strings.TrimSpace(string(data)) != l.token {
		return nil
	}
	return os.Remove(l.path)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("stage: mkdir %s: %w", dir, err)
	}
	tmp := filepath.Join(dir, ".tmp-"+uuid.NewString())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("stage: write temp for %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("stage: rename into place for %s: %w", path, err)
	}
	return nil
}
