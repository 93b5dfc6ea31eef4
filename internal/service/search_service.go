package service

import (
	"context"

	"parkease/internal/domain"
	"parkease/internal/metrics"
	"parkease/internal/nlp"
	"parkease/internal/repository"

	"github.com/rs/zerolog/log"
)

// SearchService chạy smart search cục bộ: lấy candidates từ DB rồi
// chấm điểm bằng matcher, không gọi dịch vụ ngoài.
type SearchService struct {
	lotRepo repository.ParkingLotRepository
	matcher *nlp.Matcher
}

func NewSearchService(lotRepo repository.ParkingLotRepository, matcher *nlp.Matcher) *SearchService {
	return &SearchService{lotRepo: lotRepo, matcher: matcher}
}

// Search trả về các bãi khớp câu truy vấn, xếp theo điểm giảm dần,
// hòa điểm thì lot id tăng dần. Câu rỗng → danh sách rỗng.
func (s *SearchService) Search(ctx context.Context, principal domain.Principal, dto domain.SearchRequestDTO) ([]domain.SearchMatch, error) {
	if principal.IsZero() {
		return nil, ErrUnauthorized
	}
	metrics.IncSearchRequest()

	candidates, err := s.lotRepo.SearchCandidates(ctx)
	if err != nil {
		return nil, err
	}
	matches := s.matcher.Match(dto.Query, candidates)
	log.Debug().
		Str("query", dto.Query).
		Int("candidates", len(candidates)).
		Int("matches", len(matches)).
		Msg("Đã xử lý truy vấn tìm kiếm")
	if matches == nil {
		matches = []domain.SearchMatch{}
	}
	return matches, nil
}
