package picker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/fekuna/omnipos-product-picker/internal/model"
)

type paginationTestContext struct {
	pageSize int
	catalog  *fakeCatalog
	sched    *fakeScheduler
	session  *Session
	issued   bool
}

func (c *paginationTestContext) reset() {
	c.pageSize = DefaultPageSize
	c.catalog = &fakeCatalog{pages: map[string][][]model.Product{}}
	c.sched = &fakeScheduler{}
	c.session = nil
	c.issued = false
}

func (c *paginationTestContext) open() *Session {
	if c.session == nil {
		c.session = newTestSession(c.catalog, c.sched, inline, Options{PageSize: c.pageSize})
	}
	return c.session
}

func (c *paginationTestContext) aCatalogPageSizeOf(size int) error {
	c.pageSize = size
	return nil
}

func (c *paginationTestContext) theCatalogHasProductsMatching(count int, query string) error {
	all := makeProducts(1, count)
	var pages [][]model.Product
	for start := 0; start < len(all); start += c.pageSize {
		end := start + c.pageSize
		if end > len(all) {
			end = len(all)
		}
		pages = append(pages, all[start:end])
	}
	c.catalog.pages[query] = pages
	return nil
}

func (c *paginationTestContext) iSearchFor(query string) error {
	return c.open().SetQuery(query)
}

func (c *paginationTestContext) theSearchSettles() error {
	c.sched.elapse()
	return nil
}

func (c *paginationTestContext) theCatalogStartsFailing() error {
	c.catalog.fail(errors.New("service unavailable"))
	return nil
}

func (c *paginationTestContext) iScrollToTheEndOfTheList() error {
	c.issued = c.open().LoadMore()
	return nil
}

func (c *paginationTestContext) productsAreListed(count int) error {
	if got := len(c.open().State().Products); got != count {
		return fmt.Errorf("expected %d products, got %d", count, got)
	}
	return nil
}

func (c *paginationTestContext) moreProductsAreAvailable() error {
	if !c.open().State().HasMore {
		return errors.New("expected more products to be available")
	}
	return nil
}

func (c *paginationTestContext) noMoreProductsAreAvailable() error {
	if c.open().State().HasMore {
		return errors.New("expected the results to be exhausted")
	}
	return nil
}

func (c *paginationTestContext) noFetchIsIssued() error {
	if c.issued {
		return errors.New("expected the scroll trigger to be ignored")
	}
	return nil
}

func (c *paginationTestContext) theCatalogWasQueriedTimes(n int) error {
	if got := len(c.catalog.Calls()); got != n {
		return fmt.Errorf("expected %d catalog queries, got %d", n, got)
	}
	return nil
}

func (c *paginationTestContext) theLastQueryWasPage(query string, page int) error {
	calls := c.catalog.Calls()
	if len(calls) == 0 {
		return errors.New("the catalog was never queried")
	}
	last := calls[len(calls)-1]
	if last.Search != query || last.Page != page {
		return fmt.Errorf("expected %q page %d, got %q page %d", query, page, last.Search, last.Page)
	}
	return nil
}

func (c *paginationTestContext) thePickerShows(message string) error {
	if got := c.open().State().Err; got != message {
		return fmt.Errorf("expected error %q, got %q", message, got)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &paginationTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^a catalog page size of (\d+)$`, tc.aCatalogPageSizeOf)
	ctx.Step(`^the catalog has (\d+) products matching "([^"]*)"$`, tc.theCatalogHasProductsMatching)
	ctx.Step(`^the catalog starts failing$`, tc.theCatalogStartsFailing)

	ctx.Step(`^I search for "([^"]*)"$`, tc.iSearchFor)
	ctx.Step(`^the search settles$`, tc.theSearchSettles)
	ctx.Step(`^I scroll to the end of the list$`, tc.iScrollToTheEndOfTheList)

	ctx.Step(`^(\d+) products are listed$`, tc.productsAreListed)
	ctx.Step(`^more products are available$`, tc.moreProductsAreAvailable)
	ctx.Step(`^no more products are available$`, tc.noMoreProductsAreAvailable)
	ctx.Step(`^no fetch is issued$`, tc.noFetchIsIssued)
	ctx.Step(`^the catalog was queried (\d+) times$`, tc.theCatalogWasQueriedTimes)
	ctx.Step(`^the last query was "([^"]*)" page (\d+)$`, tc.theLastQueryWasPage)
	ctx.Step(`^the picker shows "([^"]*)"$`, tc.thePickerShows)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
