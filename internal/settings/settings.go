package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"

	"lyricbridge/pkg/fileutil"
)

// Settings 用户可在运行时修改的设置，独立于启动配置持久化
type Settings struct {
	BackendURL        string            `json:"backend_url,omitempty"`
	Credentials       map[string]string `json:"credentials,omitempty"`
	LastSaveDirectory string            `json:"last_save_directory,omitempty"`
}

// Store 基于JSON文件的设置存储，写入走临时文件加rename
type Store struct {
	path  string
	mutex sync.Mutex
}

func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}
	return &Store{path: filepath.Join(dataDir, "settings.json")}, nil
}

// Load 读取设置，文件不存在时返回零值
func (s *Store) Load() (*Settings, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() (*Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Settings{Credentials: map[string]string{}}, nil
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		// 文件损坏时不阻塞启动，按空设置处理
		log.Warn().Err(err).Str("path", s.path).Msg("settings file is corrupt, using empty settings")
		return &Settings{Credentials: map[string]string{}}, nil
	}
	if settings.Credentials == nil {
		settings.Credentials = map[string]string{}
	}
	return &settings, nil
}

// Save 持久化设置
func (s *Store) Save(settings *Settings) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.saveLocked(settings)
}

func (s *Store) saveLocked(settings *Settings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := fileutil.WriteFileAtomic(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// Update 读改写，回调内修改设置，整个过程持锁
func (s *Store) Update(fn func(*Settings)) (*Settings, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	settings, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	fn(settings)
	if err := s.saveLocked(settings); err != nil {
		return nil, err
	}
	return settings, nil
}
