package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/iWorld-y/report_flow/app/report_flow/pkg/kv"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/logger"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/metrics"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/model"
)

var (
	// ErrNotFound 报告不存在
	ErrNotFound = errors.New("report not found")
	// ErrDuplicateID 报告 id 已存在
	ErrDuplicateID = errors.New("duplicate report id")
	// ErrUnavailable 后端读取失败后 Store 只读，直到 Load 成功
	ErrUnavailable = errors.New("report store unavailable")
)

// LoadError 启动时持久化数据无法解析，属于可恢复错误
type LoadError struct {
	Key string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Key, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Store 报告集合的唯一数据源，新报告在前
type Store struct {
	backend kv.Backend
	key     string

	mu       sync.Mutex
	reports  []model.StructuredReport
	selected string
	version  uint64
	// readErr 非空时拒绝一切写入，避免用空集合覆盖后端已有数据
	readErr error
}

// New 创建 Store，调用方需要再调用 Load
func New(backend kv.Backend, key string) *Store {
	return &Store{backend: backend, key: key}
}

// Load 读取持久化集合。反序列化失败时集合置空并返回 *LoadError，Store 仍可使用；
// 后端读取失败时返回普通错误，Store 进入只读状态
func (s *Store) Load(ctx context.Context) ([]model.StructuredReport, error) {
	data, err := s.backend.Get(ctx, s.key)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = nil
	s.selected = ""
	s.version++
	s.readErr = nil

	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			metrics.ReportsStored.Set(0)
			return nil, nil
		}
		logger.Log.Errorf("读取报告集合失败 [%s]: %v", s.key, err)
		s.readErr = err
		return nil, fmt.Errorf("read %s: %w", s.key, err)
	}

	var reports []model.StructuredReport
	if err := json.Unmarshal(data, &reports); err != nil {
		logger.Log.Errorf("报告集合解析失败，以空集合启动 [%s]: %v", s.key, err)
		metrics.ReportsStored.Set(0)
		return nil, &LoadError{Key: s.key, Err: err}
	}

	s.reports = reports
	metrics.ReportsStored.Set(float64(len(reports)))
	logger.Log.Infof("已加载 %d 份报告", len(reports))
	return cloneReports(reports), nil
}

// Add 头插一份报告并整体重写持久化数据
func (s *Store) Add(ctx context.Context, report model.StructuredReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writableLocked(); err != nil {
		return err
	}

	for _, r := range s.reports {
		if r.ID == report.ID {
			return fmt.Errorf("%w: %s", ErrDuplicateID, report.ID)
		}
	}

	next := make([]model.StructuredReport, 0, len(s.reports)+1)
	next = append(next, report)
	next = append(next, s.reports...)
	s.reports = next
	s.version++
	metrics.ReportsStored.Set(float64(len(s.reports)))

	return s.persistLocked(ctx)
}

// Remove 按 id 删除；被删除的是当前选中报告时清空选中状态
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writableLocked(); err != nil {
		return err
	}

	idx := s.indexLocked(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	next := make([]model.StructuredReport, 0, len(s.reports)-1)
	next = append(next, s.reports[:idx]...)
	next = append(next, s.reports[idx+1:]...)
	s.reports = next
	if s.selected == id {
		s.selected = ""
	}
	s.version++
	metrics.ReportsStored.Set(float64(len(s.reports)))

	return s.persistLocked(ctx)
}

// Persist 序列化当前集合并整体写入
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writableLocked(); err != nil {
		return err
	}
	return s.persistLocked(ctx)
}

func (s *Store) writableLocked() error {
	if s.readErr != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, s.readErr)
	}
	return nil
}

func (s *Store) persistLocked(ctx context.Context) error {
	reports := s.reports
	if reports == nil {
		reports = []model.StructuredReport{}
	}
	data, err := json.Marshal(reports)
	if err != nil {
		metrics.PersistErrorsTotal.Inc()
		return fmt.Errorf("marshal reports: %w", err)
	}
	if err := s.backend.Put(ctx, s.key, data); err != nil {
		metrics.PersistErrorsTotal.Inc()
		logger.Log.Errorf("保存报告集合失败 [%s]: %v", s.key, err)
		return fmt.Errorf("persist reports: %w", err)
	}
	return nil
}

// Select 设置当前选中报告
func (s *Store) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexLocked(id) < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.selected = id
	return nil
}

// ClearSelection 取消选中
func (s *Store) ClearSelection() {
	s.mu.Lock()
	s.selected = ""
	s.mu.Unlock()
}

// Selected 返回当前选中的报告
func (s *Store) Selected() (model.StructuredReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(s.selected)
	if idx < 0 {
		return model.StructuredReport{}, false
	}
	return cloneReport(s.reports[idx]), true
}

// SelectedID 当前选中的 id，未选中时为空
func (s *Store) SelectedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Get 按 id 查找
func (s *Store) Get(id string) (model.StructuredReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return model.StructuredReport{}, false
	}
	return cloneReport(s.reports[idx]), true
}

// List 返回集合副本，新报告在前
func (s *Store) List() []model.StructuredReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneReports(s.reports)
}

// Len 报告数量
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reports)
}

// Version 每次变更递增，用于判断集合是否变化
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Close 关闭底层存储
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i, r := range s.reports {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// 通过 JSON 往返做深拷贝，调用方拿到的副本不会影响内部状态
func cloneReport(r model.StructuredReport) model.StructuredReport {
	data, err := json.Marshal(r)
	if err != nil {
		return r
	}
	var out model.StructuredReport
	if err := json.Unmarshal(data, &out); err != nil {
		return r
	}
	return out
}

func cloneReports(reports []model.StructuredReport) []model.StructuredReport {
	out := make([]model.StructuredReport, len(reports))
	for i, r := range reports {
		out[i] = cloneReport(r)
	}
	return out
}
