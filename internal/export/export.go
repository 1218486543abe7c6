// Package export 批量歌词导出的编排层：解析输入、展开专辑/歌单、
// 抓取并规范化歌词、可选翻译、落盘成字幕文件。
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"lyricbridge/internal/lyric"
	"lyricbridge/internal/resolve"
	"lyricbridge/internal/subtitle"
	"lyricbridge/pkg/fileutil"
	"lyricbridge/pkg/music"
	"lyricbridge/pkg/redis"
	"lyricbridge/pkg/translate"
)

const (
	defaultWorkerLimit = 3
	cacheTTL           = 24 * time.Hour
)

// Options 一次导出动作的选项
type Options struct {
	// Formats 目标格式，支持 srt / lrc，空则默认 srt
	Formats []string `json:"formats"`
	// Translate 是否对没有翻译变体的歌词补翻译
	Translate bool `json:"translate"`
	// TargetLang 覆盖配置里的目标语言
	TargetLang string `json:"target_lang,omitempty"`
	// SaveDir 覆盖默认落盘目录
	SaveDir string `json:"save_dir,omitempty"`
}

// Result 单首歌的导出产物
type Result struct {
	Token      string      `json:"token"`
	Song       music.Song  `json:"song"`
	Track      lyric.Track `json:"track"`
	DurationMs int         `json:"duration_ms"`
}

// Summary 批量结果摘要。Success 只要有一项成功就为真。
type Summary struct {
	Success   bool   `json:"success"`
	Requested int    `json:"requested"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Message   string `json:"message"`
}

// Outcome 一次批量导出的完整结果。单项失败不影响其它项，
// 失败原因按输入token记录。
type Outcome struct {
	BatchID string            `json:"batch_id"`
	Results []Result          `json:"results"`
	Errors  map[string]string `json:"errors,omitempty"`
	Files   []string          `json:"files,omitempty"`
	Summary Summary           `json:"summary"`
}

// Orchestrator 导出编排器
type Orchestrator struct {
	registry    *music.Registry
	translator  translate.Translator
	cache       *redis.Client
	workerLimit int
	targetLang  string
	dataDir     string

	// 每个提供商一个信号量，限制对同一平台的并发请求数
	semMutex sync.Mutex
	sems     map[music.Provider]chan struct{}
}

// New 创建编排器。translator 和 cache 都允许为 nil：
// 没配翻译凭证时翻译步骤整体跳过，没配Redis时每次都直连提供商。
func New(registry *music.Registry, translator translate.Translator, cache *redis.Client, workerLimit int, targetLang, dataDir string) *Orchestrator {
	if workerLimit <= 0 {
		workerLimit = defaultWorkerLimit
	}
	return &Orchestrator{
		registry:    registry,
		translator:  translator,
		cache:       cache,
		workerLimit: workerLimit,
		targetLang:  targetLang,
		dataDir:     dataDir,
		sems:        make(map[music.Provider]chan struct{}),
	}
}

func (o *Orchestrator) acquire(ctx context.Context, p music.Provider) error {
	o.semMutex.Lock()
	sem, ok := o.sems[p]
	if !ok {
		sem = make(chan struct{}, o.workerLimit)
		o.sems[p] = sem
	}
	o.semMutex.Unlock()

	select {
	case sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) release(p music.Provider) {
	o.semMutex.Lock()
	sem := o.sems[p]
	o.semMutex.Unlock()
	<-sem
}

// Export 执行一次批量导出。上下文取消时保留已完成的结果，
// 未完成的项记为取消错误。
func (o *Orchestrator) Export(ctx context.Context, rawInput string, opts Options) (*Outcome, error) {
	tokens := resolve.SplitInput(rawInput)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: no input tokens", resolve.ErrMalformedReference)
	}

	outcome := &Outcome{
		BatchID: uuid.NewString(),
		Errors:  make(map[string]string),
	}
	// 错误值另存一份，汇总时按类别区分失败原因
	tokenErrs := make(map[string]error)

	logger := log.With().Str("component", "export").Str("batch_id", outcome.BatchID).Logger()
	logger.Info().Int("tokens", len(tokens)).Msg("Starting export batch")

	// 先做纯解析，失败的token直接记错，不占用worker
	type tokenJob struct {
		index int
		token string
		ref   music.SongReference
	}
	var jobs []tokenJob
	var mutex sync.Mutex

	for i, token := range tokens {
		ref, err := resolve.ResolveToken(token, "", "")
		if err != nil {
			outcome.Errors[token] = err.Error()
			tokenErrs[token] = err
			continue
		}
		jobs = append(jobs, tokenJob{index: i, token: token, ref: ref})
	}

	// 每个token一个goroutine，提供商信号量限制实际并发
	perToken := make([][]Result, len(tokens))
	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		go func(job tokenJob) {
			defer wg.Done()

			results, err := o.processToken(ctx, job.token, job.ref, opts)
			mutex.Lock()
			defer mutex.Unlock()
			if err != nil {
				outcome.Errors[job.token] = err.Error()
				tokenErrs[job.token] = err
				return
			}
			perToken[job.index] = results
		}(job)
	}
	wg.Wait()

	// 按输入顺序拼装结果
	for _, results := range perToken {
		outcome.Results = append(outcome.Results, results...)
	}

	if len(outcome.Results) > 0 {
		files, err := o.writeArtifacts(outcome, opts)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to write export artifacts")
			return nil, err
		}
		outcome.Files = files
	}

	outcome.Summary = Summary{
		Success:   len(outcome.Results) > 0,
		Requested: len(tokens),
		Succeeded: len(outcome.Results),
		Failed:    len(outcome.Errors),
	}
	if outcome.Summary.Success {
		outcome.Summary.Message = fmt.Sprintf("exported %d lyric(s), %d failed", outcome.Summary.Succeeded, outcome.Summary.Failed)
	} else {
		outcome.Summary.Message = summarizeFailures(tokenErrs)
	}
	logger.Info().
		Int("succeeded", outcome.Summary.Succeeded).
		Int("failed", outcome.Summary.Failed).
		Msg("Export batch finished")

	return outcome, nil
}

// processToken 处理单个输入token：song直接抓词，album/playlist先展开
func (o *Orchestrator) processToken(ctx context.Context, token string, ref music.SongReference, opts Options) ([]Result, error) {
	if err := o.acquire(ctx, ref.Provider); err != nil {
		return nil, err
	}
	defer o.release(ref.Provider)

	api, err := o.registry.Get(ref.Provider)
	if err != nil {
		return nil, err
	}

	var songs []music.Song
	switch ref.Type {
	case music.ResourceAlbum:
		_, songs, err = api.GetAlbum(ctx, ref.ID)
	case music.ResourcePlaylist:
		_, songs, err = api.GetPlaylist(ctx, ref.ID)
	default:
		songs, err = api.GetSongs(ctx, []string{ref.ID})
	}
	if err != nil {
		return nil, err
	}
	if len(songs) == 0 {
		return nil, fmt.Errorf("%w: %s %s has no songs", music.ErrNoLyric, ref.Type, ref.ID)
	}

	var results []Result
	var firstErr error
	for _, song := range songs {
		if ctx.Err() != nil {
			if firstErr == nil {
				firstErr = ctx.Err()
			}
			break
		}

		track, err := o.fetchTrack(ctx, api, song)
		if err != nil {
			// 专辑/歌单里单曲没词不罕见，跳过并继续
			log.Warn().Err(err).
				Str("component", "export").
				Str("song", song.Name).
				Str("id", song.ID).
				Msg("Failed to fetch lyric, skipping")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		if opts.Translate && o.translator != nil && len(track.Translation) == 0 && len(track.Origin) > 0 {
			track = o.translateTrack(ctx, track, opts.TargetLang)
		}

		results = append(results, Result{Token: token, Song: song, Track: track, DurationMs: song.DurationMs})
	}

	if len(results) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// fetchTrack 抓取并规范化歌词，命中缓存时跳过提供商请求
func (o *Orchestrator) fetchTrack(ctx context.Context, api music.MusicAPI, song music.Song) (lyric.Track, error) {
	cacheKey := fmt.Sprintf("lyric:%s:song:%s", api.Source(), song.ID)

	raw, ok := o.cacheGet(ctx, cacheKey)
	if !ok {
		var err error
		raw, err = api.GetLyric(ctx, song.ID, song.DisplayID)
		if err != nil {
			return lyric.Track{}, err
		}
		o.cacheSet(ctx, cacheKey, raw)
	}

	return lyric.Normalize(raw)
}

func (o *Orchestrator) cacheGet(ctx context.Context, key string) (music.Lyric, bool) {
	if o.cache == nil {
		return music.Lyric{}, false
	}
	data, err := o.cache.Get(ctx, key)
	if err != nil || data == "" {
		return music.Lyric{}, false
	}
	var raw music.Lyric
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return music.Lyric{}, false
	}
	// 降级抓取的结果不复用，等配置好Cookie后重抓全量
	if raw.Partial {
		return music.Lyric{}, false
	}
	return raw, true
}

func (o *Orchestrator) cacheSet(ctx context.Context, key string, raw music.Lyric) {
	if o.cache == nil || raw.Partial {
		return
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return
	}
	if err := o.cache.SetWithExpiration(ctx, key, string(data), cacheTTL); err != nil {
		log.Warn().Err(err).Str("component", "export").Str("key", key).Msg("Failed to cache lyric")
	}
}

// translateTrack 补翻译变体。翻译失败只丢翻译，不影响原文导出。
func (o *Orchestrator) translateTrack(ctx context.Context, track lyric.Track, targetLang string) lyric.Track {
	if targetLang == "" {
		targetLang = o.targetLang
	}
	if targetLang == "" {
		return track
	}

	translated, err := translate.TranslateLines(ctx, o.translator, lyric.Texts(track.Origin), targetLang)
	if err != nil {
		log.Warn().Err(err).
			Str("component", "export").
			Str("backend", o.translator.Name()).
			Msg("Translation failed, exporting origin only")
		return track
	}
	return track.WithTranslation(translated)
}

// writeArtifacts 把结果落盘。每个批次一个uuid目录，
// 文件名取 歌手 - 歌名，非法字符替换掉。
func (o *Orchestrator) writeArtifacts(outcome *Outcome, opts Options) ([]string, error) {
	formats := opts.Formats
	if len(formats) == 0 {
		formats = []string{"srt"}
	}

	baseDir := opts.SaveDir
	if baseDir == "" {
		baseDir = filepath.Join(o.dataDir, "exports")
	}
	batchDir := filepath.Join(baseDir, outcome.BatchID)
	if err := os.MkdirAll(batchDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory %s: %w", batchDir, err)
	}

	var files []string
	for _, result := range outcome.Results {
		name := safeFileName(fmt.Sprintf("%s - %s", strings.Join(result.Song.Singers, ","), result.Song.Name))

		for _, format := range formats {
			var content string
			var err error
			switch format {
			case "lrc":
				content, err = subtitle.RenderLRC(result.Track, nil)
			default:
				var doc subtitle.Document
				doc, err = subtitle.FromTrack(result.Track, nil)
				if err == nil {
					content = doc.Render()
				}
			}
			if err != nil {
				outcome.Errors[result.Token] = err.Error()
				continue
			}

			path := filepath.Join(batchDir, name+"."+format)
			if err := fileutil.WriteFileOverwrite(path, []byte(content), 0644); err != nil {
				return files, err
			}
			files = append(files, path)
		}
	}
	return files, nil
}

// summarizeFailures 零结果时解释失败原因：输入没解析出来、
// 歌曲存在但没词、还是网络不通，用户需要区别对待。
func summarizeFailures(tokenErrs map[string]error) string {
	var badRef, noLyric, network, other int
	for _, err := range tokenErrs {
		switch {
		case errors.Is(err, resolve.ErrUnrecognizedSource) || errors.Is(err, resolve.ErrMalformedReference):
			badRef++
		case errors.Is(err, music.ErrNoLyric):
			noLyric++
		case errors.Is(err, music.ErrNetwork):
			network++
		default:
			other++
		}
	}

	var parts []string
	if badRef > 0 {
		parts = append(parts, fmt.Sprintf("%d input(s) did not match any known catalog reference", badRef))
	}
	if noLyric > 0 {
		parts = append(parts, fmt.Sprintf("%d song(s) matched but have no lyric available", noLyric))
	}
	if network > 0 {
		parts = append(parts, fmt.Sprintf("%d request(s) failed to reach the provider", network))
	}
	if other > 0 {
		parts = append(parts, fmt.Sprintf("%d item(s) failed", other))
	}
	if len(parts) == 0 {
		return "no results"
	}
	return "no results: " + strings.Join(parts, "; ")
}

var fileNameReplacer = strings.NewReplacer(
	"/", "_", "\\", "_", ":", "_", "*", "_",
	"?", "_", "\"", "_", "<", "_", ">", "_", "|", "_",
)

func safeFileName(name string) string {
	name = strings.TrimSpace(fileNameReplacer.Replace(name))
	if name == "" || name == "-" {
		return "untitled"
	}
	return name
}
