package enrich

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"snapex/pkg/model/masset"
)

// membershipOffersStrategy joins three membership endpoints: the offer
// list carries pricing, the product list resolves product names and the
// site-info settings add the membership site domain. Each fetch is
// best-effort on its own.
type membershipOffersStrategy struct{}

func (s *membershipOffersStrategy) Enrich(ctx context.Context, env *Env, records []masset.Record) Result {
	if len(records) == 0 || env.LocationID == "" {
		return passthrough(records)
	}

	var (
		wg       sync.WaitGroup
		products []masset.Record
		offers   []masset.Record
		siteInfo masset.Record
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		var err error
		products, err = getList(ctx, env, fmt.Sprintf("/membership/locations/%s/products", env.LocationID), "products")
		if err != nil {
			env.logger().Warn("membership products fetch failed", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		offers, err = getList(ctx, env, fmt.Sprintf("/membership/smart-list/offers-products/%s", env.LocationID), "offers")
		if err != nil {
			env.logger().Warn("membership offers fetch failed", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		siteInfo, err = getJSON(ctx, env, fmt.Sprintf("/membership/locations/%s/settings/site-info", env.LocationID))
		if err != nil {
			env.logger().Warn("membership site info fetch failed", "error", err)
		}
	}()
	wg.Wait()

	offerIndex := indexByID(offers, "_id", "id")
	productIndex := indexByID(products, "_id", "id")

	out := make([]masset.Record, 0, len(records))
	for _, rec := range records {
		api, ok := offerIndex[rec.ID()]
		if !ok {
			out = append(out, rec)
			continue
		}

		var productIDs []any
		if ids, ok := api["products"].([]any); ok {
			productIDs = ids
		} else if ids, ok := api["productIds"].([]any); ok {
			productIDs = ids
		}
		names := make([]string, 0, len(productIDs))
		for _, pid := range productIDs {
			id, ok := pid.(string)
			if !ok {
				continue
			}
			if product, ok := productIndex[id]; ok {
				if name := product.DisplayName(); name != "" {
					names = append(names, name)
				}
			}
		}

		derived := map[string]any{
			"priceAmount":            firstTruthy(api["price"], rec["price"], float64(0)),
			"currency":               firstTruthy(api["currency"], rec["currency"], "USD"),
			"billingCycle":           firstTruthy(api["recurringType"], api["billingCycle"], "one-time"),
			"trialPeriod":            firstTruthy(api["trialPeriod"], api["trial"], float64(0)),
			"productCount":           len(productIDs),
			"productNames":           strings.Join(names, "; "),
			"siteDomain":             siteInfo.FirstString("customDomain", "subdomain"),
			"siteName":               siteInfo.FirstString("name", "title"),
			"isActive":               boolOr(api["isActive"], true),
			"isPublished":            boolOr(firstTruthy(api["isPublished"], api["published"]), false),
			"description":            firstTruthy(api["description"], rec["description"]),
			"createdBy":              firstTruthy(api["createdBy"], rec["createdBy"]),
			masset.EnrichmentDataKey: api,
		}
		out = append(out, rec.Merge(derived))
	}
	return Result{Records: out}
}
