package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/pbkdf2"

	"github.com/opd-ai/sectornet/crypto"
)

// FileStore is a BlobStore over flat files with AES-GCM encryption at
// rest. This protects the identity private key and sector key ring even
// if the filesystem is read by other software on the host.
type FileStore struct {
	encryptionKey [32]byte
	dataDir       string
	saltFile      string
}

const (
	// pbkdf2Iterations is the PBKDF2 iteration count for deriving the
	// at-rest encryption key (NIST recommendation).
	pbkdf2Iterations = 100000
	// fileFormatVersion is the current on-disk encryption format version.
	fileFormatVersion = 1
	// saltSize is the size of the PBKDF2 salt.
	saltSize = 32
)

// NewFileStore creates a file-backed store rooted at dataDir. The
// at-rest key is derived from masterPassword with PBKDF2; the password
// buffer is wiped before returning.
func NewFileStore(dataDir string, masterPassword []byte) (*FileStore, error) {
	if len(masterPassword) == 0 {
		return nil, fmt.Errorf("master password cannot be empty")
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	fs := &FileStore{
		dataDir:  dataDir,
		saltFile: filepath.Join(dataDir, ".salt"),
	}

	salt, err := fs.loadOrGenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize salt: %w", err)
	}

	derivedKey := pbkdf2.Key(masterPassword, salt, pbkdf2Iterations, 32, sha256.New)
	copy(fs.encryptionKey[:], derivedKey)

	crypto.ZeroBytes(derivedKey)
	crypto.ZeroBytes(masterPassword)

	return fs, nil
}

func (fs *FileStore) loadOrGenerateSalt() ([]byte, error) {
	salt := make([]byte, saltSize)

	data, err := os.ReadFile(fs.saltFile)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read salt file: %w", err)
		}

		if _, err := rand.Read(salt); err != nil {
			return nil, fmt.Errorf("failed to generate salt: %w", err)
		}

		if err := os.WriteFile(fs.saltFile, salt, 0o600); err != nil {
			return nil, fmt.Errorf("failed to save salt: %w", err)
		}

		return salt, nil
	}

	if len(data) != saltSize {
		return nil, fmt.Errorf("invalid salt file size: got %d, want %d", len(data), saltSize)
	}

	copy(salt, data)
	return salt, nil
}

// Write encrypts blob and writes it under key.
// Format: [version:2][nonce:12][ciphertext+tag:N]. The write is atomic
// (temporary file plus rename) so a crash mid-write leaves the previous
// blob intact.
func (fs *FileStore) Write(key string, blob []byte) error {
	block, err := aes.NewCipher(fs.encryptionKey[:])
	if err != nil {
		return fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, blob, nil)

	output := make([]byte, 2+len(nonce)+len(ciphertext))
	binary.BigEndian.PutUint16(output[0:2], fileFormatVersion)
	copy(output[2:2+len(nonce)], nonce)
	copy(output[2+len(nonce):], ciphertext)

	tmpFile := filepath.Join(fs.dataDir, key+".tmp")
	finalFile := filepath.Join(fs.dataDir, key)

	if err := os.WriteFile(tmpFile, output, 0o600); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tmpFile, finalFile); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}

// Read decrypts and returns the blob stored under key. A missing file
// yields ErrNoBlob; a corrupted or wrong-password file yields an error
// the caller treats as corruption.
func (fs *FileStore) Read(key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(fs.dataDir, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoBlob
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// version + nonce + tag
	if len(data) < 2+12+16 {
		return nil, fmt.Errorf("file too short: %d bytes", len(data))
	}

	version := binary.BigEndian.Uint16(data[0:2])
	if version != fileFormatVersion {
		return nil, fmt.Errorf("unsupported encryption version: %d", version)
	}

	block, err := aes.NewCipher(fs.encryptionKey[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	nonce := data[2 : 2+nonceSize]
	ciphertext := data[2+nonceSize:]

	blob, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed (wrong password or corrupted data): %w", err)
	}

	return blob, nil
}

// Delete removes the blob stored under key, overwriting it with zeros
// first as best-effort secure deletion.
func (fs *FileStore) Delete(key string) error {
	filePath := filepath.Join(fs.dataDir, key)

	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat file: %w", err)
	}

	zeros := make([]byte, info.Size())
	if err := os.WriteFile(filePath, zeros, 0o600); err != nil {
		return os.Remove(filePath)
	}

	return os.Remove(filePath)
}

// Close wipes the at-rest encryption key from memory. The store must
// not be used afterwards.
func (fs *FileStore) Close() error {
	crypto.ZeroBytes(fs.encryptionKey[:])
	return nil
}
