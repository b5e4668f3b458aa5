package view

import (
	"context"
	"slices"
	"strings"

	"github.com/iWorld-y/report_flow/app/report_flow/pkg/logger"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/model"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/store"
)

const (
	ChatGreeting = "안녕하세요! Smart 주간업무 AJ AI 기반 지식베이스 챗봇입니다. 저장된 주간업무 보고서를 바탕으로 궁금한 점을 물어보세요."
	ChatApology  = "죄송합니다. Smart 주간업무 AJ AI가 답변을 생성하는 중 오류가 발생했습니다."
)

// Chat 问答页面，对话记录只保存在内存中
type Chat struct {
	Runner

	analyzer     Analyzer
	store        *store.Store
	historyTurns int

	transcript []model.ChatTurn
}

// NewChat historyTurns 为每次提问回传给模型的历史条数
func NewChat(analyzer Analyzer, s *store.Store, historyTurns int) *Chat {
	return &Chat{
		analyzer:     analyzer,
		store:        s,
		historyTurns: historyTurns,
		transcript:   []model.ChatTurn{{Role: model.ChatRoleAssistant, Content: ChatGreeting}},
	}
}

// Send 至少需要一份报告；立即追加用户消息，调用结束后追加回答；任何失败都以致歉消息作答
func (c *Chat) Send(ctx context.Context, question string) (model.ChatTurn, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return model.ChatTurn{}, c.reject(validationf("질문을 입력해주세요"))
	}
	if c.store.Len() == 0 {
		return model.ChatTurn{}, c.reject(validationf("저장된 보고서가 없습니다"))
	}

	runCtx, gen, err := c.begin(ctx)
	if err != nil {
		return model.ChatTurn{}, err
	}

	c.mu.Lock()
	prior := c.priorLocked()
	c.transcript = append(c.transcript, model.ChatTurn{Role: model.ChatRoleUser, Content: question})
	c.mu.Unlock()

	reply := model.ChatTurn{Role: model.ChatRoleAssistant}
	answer, err := c.analyzer.Chat(runCtx, question, c.store.List(), prior)
	if err != nil {
		logger.Log.Warnf("问答调用失败，返回致歉消息: %v", err)
		reply.Content = ChatApology
	} else {
		reply.Content = answer
	}

	if err := c.finish(gen, nil, func() error {
		c.transcript = append(c.transcript, reply)
		return nil
	}); err != nil {
		return model.ChatTurn{}, err
	}
	return reply, nil
}

// Transcript 对话记录副本
func (c *Chat) Transcript() []model.ChatTurn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.transcript)
}

// priorLocked 问候语之后最近的 historyTurns 条记录
func (c *Chat) priorLocked() []model.ChatTurn {
	if c.historyTurns <= 0 || len(c.transcript) <= 1 {
		return nil
	}
	turns := c.transcript[1:]
	if len(turns) > c.historyTurns {
		turns = turns[len(turns)-c.historyTurns:]
	}
	return slices.Clone(turns)
}
