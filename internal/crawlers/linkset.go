package crawlers

import "sync"

// LinkSet 一次发现过程内的跨页面URL集合
// 语义: 同一URL出现在两个种子页面上时,每个页面各报告一次,但只下载一次
type LinkSet struct {
	mu   sync.RWMutex
	seen map[string]bool
}

// NewLinkSet 创建URL集合
func NewLinkSet() *LinkSet {
	return &LinkSet{
		seen: make(map[string]bool),
	}
}

// MarkSeen 标记URL,返回是否为首次出现
func (s *LinkSet) MarkSeen(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seen[url] {
		return false
	}
	s.seen[url] = true
	return true
}

// IsSeen 检查URL是否已出现过
func (s *LinkSet) IsSeen(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seen[url]
}

// Count 返回集合大小
func (s *LinkSet) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

// Reset 清空集合,用于新的发现过程
func (s *LinkSet) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = make(map[string]bool)
}
