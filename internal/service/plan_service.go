package service

import (
	"context"
	"sort"

	"ai-chat-session-be/internal/dto"
	"ai-chat-session-be/internal/repository/unitofwork"
)

type IPlanService interface {
	GetPlans(ctx context.Context) ([]*dto.PlanResponse, error)
}

type planService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewPlanService(uowFactory unitofwork.RepositoryFactory) IPlanService {
	return &planService{uowFactory: uowFactory}
}

// GetPlans joins the catalog with the configured budgets. A plan without a
// session_config row is listed with a limit of 0, which is what the gate enforces.
func (s *planService) GetPlans(ctx context.Context) ([]*dto.PlanResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	configs, err := uow.SessionConfigRepository().FindAll(ctx)
	if err != nil {
		return nil, err
	}

	limits := make(map[string]int64, len(configs))
	for _, c := range configs {
		limits[c.PlanId+"/"+c.ModelName] = c.TokenLimitPerHour
	}

	plans := DefaultPlans()
	res := make([]*dto.PlanResponse, 0, len(plans))
	for _, p := range plans {
		prices := make([]dto.PlanPriceDTO, 0, len(p.Prices))
		for hours, price := range p.Prices {
			prices = append(prices, dto.PlanPriceDTO{Hours: hours, Price: price})
		}
		sort.Slice(prices, func(i, j int) bool { return prices[i].Hours < prices[j].Hours })

		res = append(res, &dto.PlanResponse{
			Id:                p.Id,
			Name:              p.Name,
			ModelName:         p.ModelName,
			DisplayModel:      p.DisplayModel,
			Prices:            prices,
			TokenLimitPerHour: limits[p.Id+"/"+p.ModelName],
		})
	}
	return res, nil
}
