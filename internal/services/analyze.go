package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fyerfyer/doc-insight-system/internal/analyzer"
	"github.com/fyerfyer/doc-insight-system/internal/cache"
	"github.com/fyerfyer/doc-insight-system/internal/collection"
	"github.com/fyerfyer/doc-insight-system/internal/database"
	"github.com/fyerfyer/doc-insight-system/internal/document"
	"github.com/fyerfyer/doc-insight-system/internal/models"
	"github.com/fyerfyer/doc-insight-system/internal/repository"
	"github.com/fyerfyer/doc-insight-system/pkg/storage"
	"github.com/fyerfyer/doc-insight-system/pkg/taskqueue"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AnalysisService 集合分析服务
// 负责协调文本提取、章节分段、相关性排序和结果产出
type AnalysisService struct {
	storage       storage.Storage          // 结果归档存储
	blockCache    *cache.BlockCache        // 文本块缓存
	repo          repository.JobRepository // 作业元数据存储
	statusManager *AnalysisStatusManager   // 作业状态管理器
	taskQueue     taskqueue.Queue          // 任务队列
	asyncEnabled  bool                     // 是否启用异步处理
	analyzerCfg   analyzer.Config          // 分析管线配置
	timeout       time.Duration            // 处理超时时间
	logger        *logrus.Logger           // 日志记录器
}

// AnalysisOption 分析服务配置选项
type AnalysisOption func(*AnalysisService)

// NewAnalysisService 创建一个新的分析服务
func NewAnalysisService(opts ...AnalysisOption) *AnalysisService {
	srv := &AnalysisService{
		analyzerCfg:  analyzer.DefaultConfig(),
		timeout:      time.Minute * 5, // 默认超时时间
		logger:       logrus.New(),    // 默认日志记录器
		asyncEnabled: false,           // 默认不启用异步处理
	}

	for _, opt := range opts {
		opt(srv)
	}

	return srv
}

// WithStorage 设置结果归档存储
func WithStorage(s storage.Storage) AnalysisOption {
	return func(srv *AnalysisService) {
		srv.storage = s
	}
}

// WithBlockCache 设置文本块缓存
func WithBlockCache(c *cache.BlockCache) AnalysisOption {
	return func(srv *AnalysisService) {
		srv.blockCache = c
	}
}

// WithJobRepository 设置作业仓储
func WithJobRepository(repo repository.JobRepository) AnalysisOption {
	return func(srv *AnalysisService) {
		srv.repo = repo
	}
}

// WithStatusManager 设置状态管理器
func WithStatusManager(manager *AnalysisStatusManager) AnalysisOption {
	return func(srv *AnalysisService) {
		srv.statusManager = manager
	}
}

// WithTaskQueue 设置任务队列
func WithTaskQueue(queue taskqueue.Queue) AnalysisOption {
	return func(srv *AnalysisService) {
		srv.taskQueue = queue
		srv.asyncEnabled = queue != nil
	}
}

// WithAnalyzerConfig 设置分析管线配置
func WithAnalyzerConfig(cfg analyzer.Config) AnalysisOption {
	return func(srv *AnalysisService) {
		srv.analyzerCfg = cfg
	}
}

// WithTimeout 设置处理超时时间
func WithTimeout(timeout time.Duration) AnalysisOption {
	return func(srv *AnalysisService) {
		srv.timeout = timeout
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *logrus.Logger) AnalysisOption {
	return func(srv *AnalysisService) {
		if logger != nil {
			srv.logger = logger
		}
	}
}

// Init 初始化分析服务
// 数据库未初始化时不创建默认仓储，此时服务只能以无作业记录的方式运行
func (s *AnalysisService) Init() error {
	if s.repo == nil && database.DB != nil {
		s.repo = repository.NewJobRepository()
	}

	if s.statusManager == nil && s.repo != nil {
		s.statusManager = NewAnalysisStatusManager(s.repo, s.logger)
	}

	return nil
}

// SubmitCollection 提交一个集合进行分析
// 创建作业记录后，异步模式下入队任务立即返回，否则同步执行
func (s *AnalysisService) SubmitCollection(ctx context.Context, collectionPath string) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}

	if collectionPath == "" {
		return "", errors.New("collectionPath cannot be empty")
	}
	if s.statusManager == nil {
		return "", errors.New("job repository not configured")
	}

	// 预先加载请求，角色或任务缺失的集合直接拒绝
	req, err := collection.LoadRequest(filepath.Join(collectionPath, collection.InputFileName))
	if err != nil {
		return "", fmt.Errorf("failed to load collection request: %w", err)
	}

	jobID := uuid.New().String()
	collectionName := filepath.Base(collectionPath)

	job := &models.AnalysisJob{
		ID:             jobID,
		CollectionName: collectionName,
		CollectionPath: collectionPath,
		Persona:        req.Persona.Role,
		Task:           req.JobToBeDone.Task,
		DocumentCount:  len(req.Documents),
	}

	if err := s.statusManager.CreateJob(ctx, job); err != nil {
		return "", fmt.Errorf("failed to create analysis job: %w", err)
	}

	payload := taskqueue.CollectionAnalyzePayload{
		JobID:          jobID,
		CollectionName: collectionName,
		CollectionPath: collectionPath,
		PersonaRole:    req.Persona.Role,
		Task:           req.JobToBeDone.Task,
	}

	// 异步模式：入队后立即返回作业ID
	if s.asyncEnabled && s.taskQueue != nil {
		taskID, err := s.taskQueue.Enqueue(ctx, taskqueue.TaskCollectionAnalyze, jobID, payload)
		if err != nil {
			s.failJob(ctx, jobID, fmt.Sprintf("failed to enqueue analysis task: %v", err))
			return "", fmt.Errorf("failed to enqueue analysis task: %w", err)
		}

		s.logger.WithFields(logrus.Fields{
			"job_id":  jobID,
			"task_id": taskID,
		}).Info("Collection analysis task enqueued")

		return jobID, nil
	}

	// 同步模式：直接在当前进程中执行
	if _, err := s.RunCollection(ctx, payload); err != nil {
		return jobID, err
	}
	return jobID, nil
}

// RunCollection 对一个集合执行完整的分析流程
// 实现taskqueue.AnalysisRunner接口，同步与异步共用这条路径
func (s *AnalysisService) RunCollection(ctx context.Context, payload taskqueue.CollectionAnalyzePayload) (*taskqueue.CollectionAnalyzeResult, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}

	// 设置上下文超时
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	jobID := payload.JobID

	s.logger.WithFields(logrus.Fields{
		"job_id":     jobID,
		"collection": payload.CollectionName,
	}).Info("Starting collection analysis")

	if jobID != "" && s.statusManager != nil {
		if err := s.statusManager.MarkAsProcessing(ctx, jobID); err != nil {
			s.logger.WithError(err).Error("Failed to mark job as processing")
			// 继续处理，不中断
		}
	}

	result, err := s.analyzeCollection(ctx, jobID, payload.CollectionPath)
	if err != nil {
		s.failJob(ctx, jobID, err.Error())
		return nil, err
	}

	// 编码结果并写入集合目录
	data, err := result.Encode()
	if err != nil {
		s.failJob(ctx, jobID, fmt.Sprintf("failed to encode result: %v", err))
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}

	outputPath := filepath.Join(payload.CollectionPath, collection.OutputFileName)
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		s.failJob(ctx, jobID, fmt.Sprintf("failed to write output: %v", err))
		return nil, fmt.Errorf("failed to write output: %w", err)
	}

	// 将结果归档到对象存储
	if s.storage != nil {
		if _, err := s.storage.Save(bytes.NewReader(data), payload.CollectionName, collection.OutputFileName); err != nil {
			s.logger.WithError(err).WithField("collection", payload.CollectionName).
				Warn("Failed to archive analysis result")
		}
	}

	// 更新作业状态和结果
	if jobID != "" && s.statusManager != nil {
		err = s.statusManager.MarkAsCompleted(ctx, jobID, data,
			len(result.ExtractedSections), len(result.SubsectionAnalysis))
		if err != nil {
			s.logger.WithError(err).Error("Failed to mark job as completed")
			// 结果已产出，状态更新失败不返回错误
		}
	}

	s.logger.WithFields(logrus.Fields{
		"job_id":           jobID,
		"collection":       payload.CollectionName,
		"section_count":    len(result.ExtractedSections),
		"subsection_count": len(result.SubsectionAnalysis),
		"output":           outputPath,
	}).Info("Collection analysis completed")

	return &taskqueue.CollectionAnalyzeResult{
		JobID:           jobID,
		CollectionName:  payload.CollectionName,
		DocumentCount:   len(result.Metadata.InputDocuments),
		SectionCount:    len(result.ExtractedSections),
		SubsectionCount: len(result.SubsectionAnalysis),
		OutputPath:      outputPath,
	}, nil
}

// AnalyzeCollection 分析一个集合并返回结果，不落盘也不记录作业
// 供只需要结果对象的调用方使用
func (s *AnalysisService) AnalyzeCollection(ctx context.Context, collectionPath string) (*collection.Result, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.analyzeCollection(ctx, "", collectionPath)
}

// analyzeCollection 执行集合分析的核心流程
func (s *AnalysisService) analyzeCollection(ctx context.Context, jobID string, collectionPath string) (*collection.Result, error) {
	// 加载集合请求
	req, err := collection.LoadRequest(filepath.Join(collectionPath, collection.InputFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to load collection request: %w", err)
	}

	// 文本提取阶段
	s.enterStage(ctx, jobID, models.StageExtracting)
	documents, err := s.extractDocuments(ctx, collectionPath, req.Documents)
	if err != nil {
		return nil, err
	}

	// 分段、排序和精炼都在分析管线内完成
	s.enterStage(ctx, jobID, models.StageSegmenting)
	pipeline := analyzer.New(s.analyzerCfg, analyzer.WithLogger(s.logger))

	s.enterStage(ctx, jobID, models.StageRanking)
	analysis, err := pipeline.Analyze(documents, req.Query())
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	s.enterStage(ctx, jobID, models.StageRefining)
	return collection.Assemble(req, analysis, time.Now()), nil
}

// extractDocuments 从集合目录中提取所有文档的文本块
// 缺失或无法解析的文档跳过并记录警告，不影响其他文档
func (s *AnalysisService) extractDocuments(ctx context.Context, collectionPath string, refs []collection.DocumentRef) ([]analyzer.DocumentBlocks, error) {
	docsDir := filepath.Join(collectionPath, collection.DocumentsDirName)
	documents := make([]analyzer.DocumentBlocks, 0, len(refs))

	for _, ref := range refs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		filePath := filepath.Join(docsDir, ref.Filename)

		blocks, err := s.extractBlocks(filePath)
		if err != nil {
			s.logger.WithError(err).WithField("document", ref.Filename).
				Warn("Skipping document that could not be extracted")
			continue
		}

		documents = append(documents, analyzer.DocumentBlocks{
			Document: ref.Filename,
			Blocks:   blocks,
		})
	}

	return documents, nil
}

// extractBlocks 提取单个文档的文本块，命中缓存时跳过解析
func (s *AnalysisService) extractBlocks(filePath string) ([]analyzer.TextBlock, error) {
	if s.blockCache != nil {
		if blocks, ok := s.blockCache.Get(filePath); ok {
			s.logger.WithField("file", filepath.Base(filePath)).Debug("Text block cache hit")
			return blocks, nil
		}
	}

	extractor, err := document.ExtractorFactory(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}

	blocks, err := extractor.Extract(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text blocks: %w", err)
	}

	if s.blockCache != nil {
		if err := s.blockCache.Set(filePath, blocks); err != nil {
			s.logger.WithError(err).Warn("Failed to cache text blocks")
		}
	}

	return blocks, nil
}

// GetJobInfo 获取作业信息
func (s *AnalysisService) GetJobInfo(ctx context.Context, jobID string) (*models.AnalysisJob, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	if s.statusManager == nil {
		return nil, errors.New("job repository not configured")
	}
	return s.statusManager.GetJob(ctx, jobID)
}

// ListJobs 获取作业列表
func (s *AnalysisService) ListJobs(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.AnalysisJob, int64, error) {
	if err := s.Init(); err != nil {
		return nil, 0, err
	}
	if s.statusManager == nil {
		return nil, 0, errors.New("job repository not configured")
	}
	return s.statusManager.ListJobs(ctx, offset, limit, filters)
}

// DeleteJob 删除作业及其相关数据
func (s *AnalysisService) DeleteJob(ctx context.Context, jobID string) error {
	if err := s.Init(); err != nil {
		return err
	}
	if s.statusManager == nil {
		return errors.New("job repository not configured")
	}

	s.logger.WithField("job_id", jobID).Info("Deleting analysis job")

	// 删除队列中的相关任务
	if s.taskQueue != nil {
		tasks, err := s.taskQueue.GetTasksByJob(ctx, jobID)
		if err == nil {
			for _, task := range tasks {
				if err := s.taskQueue.DeleteTask(ctx, task.ID); err != nil {
					s.logger.WithError(err).WithField("task_id", task.ID).Warn("Failed to delete job task")
				}
			}
		}
	}

	return s.statusManager.DeleteJob(ctx, jobID)
}

// WaitForJob 等待作业处理完成
func (s *AnalysisService) WaitForJob(ctx context.Context, jobID string, timeout time.Duration) (*models.AnalysisJob, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	if s.statusManager == nil {
		return nil, errors.New("job repository not configured")
	}
	return s.statusManager.WaitUntilTerminal(ctx, jobID, timeout)
}

// GetStatusManager 返回作业状态管理器实例
func (s *AnalysisService) GetStatusManager() *AnalysisStatusManager {
	return s.statusManager
}

// GetTaskQueue 返回任务队列实例
func (s *AnalysisService) GetTaskQueue() taskqueue.Queue {
	return s.taskQueue
}

// enterStage 推进作业阶段，失败只记录警告
func (s *AnalysisService) enterStage(ctx context.Context, jobID string, stage models.JobStage) {
	if jobID == "" || s.statusManager == nil {
		return
	}
	if err := s.statusManager.EnterStage(ctx, jobID, stage); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"job_id": jobID,
			"stage":  stage,
		}).Warn("Failed to update job stage")
	}
}

// failJob 将作业标记为失败状态
func (s *AnalysisService) failJob(ctx context.Context, jobID string, errorMsg string) {
	if jobID == "" {
		return
	}

	if s.statusManager == nil {
		s.logger.Error("Cannot mark job as failed: status manager not initialized")
		return
	}

	if err := s.statusManager.MarkAsFailed(ctx, jobID, errorMsg); err != nil {
		s.logger.WithFields(logrus.Fields{
			"job_id": jobID,
			"error":  err,
		}).Error("Failed to mark job as failed")
	}
}
