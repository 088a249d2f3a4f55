package alias

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byteshifted/mailpanel/interfaces"
	er "github.com/byteshifted/mailpanel/internal/errors"
	"github.com/byteshifted/mailpanel/internal/logger"
	"github.com/byteshifted/mailpanel/internal/models"
	"github.com/byteshifted/mailpanel/internal/repository"
	"github.com/byteshifted/mailpanel/internal/utils"
)

func getTestLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{DevMode: true})
	appLogger.InitLogger()
	return appLogger
}

func userContext(userID string) context.Context {
	return utils.WithCustomContext(context.Background(), &utils.CustomContext{
		UserId:    userID,
		UserEmail: userID + "@test.local",
	})
}

type fakeDomainRepo struct {
	byID map[string]*models.Domain
}

func (f *fakeDomainRepo) Create(ctx context.Context, domain *models.Domain) (*models.Domain, error) {
	return domain, nil
}

func (f *fakeDomainRepo) GetUserDomain(ctx context.Context, userID, id string) (*models.Domain, error) {
	domain := f.byID[id]
	if domain == nil || domain.UserID != userID {
		return nil, nil
	}
	return domain, nil
}

func (f *fakeDomainRepo) GetByName(ctx context.Context, name string) (*models.Domain, error) {
	return nil, nil
}

func (f *fakeDomainRepo) ListByUser(ctx context.Context, userID string) ([]models.DomainWithCounts, error) {
	return nil, nil
}

func (f *fakeDomainRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	return 0, nil
}

func (f *fakeDomainRepo) DeleteCascade(ctx context.Context, id string) (bool, error) {
	return false, nil
}

type fakeAliasRepo struct {
	byID      map[string]*models.Alias
	created   []*models.Alias
	updates   map[string]repository.AliasUpdate
	deleted   []string
	createErr error
}

func newFakeAliasRepo() *fakeAliasRepo {
	return &fakeAliasRepo{
		byID:    make(map[string]*models.Alias),
		updates: make(map[string]repository.AliasUpdate),
	}
}

func (f *fakeAliasRepo) Create(ctx context.Context, alias *models.Alias) (*models.Alias, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if alias.ID == "" {
		alias.ID = utils.GenerateNanoIDWithPrefix("als", 16)
	}
	f.byID[alias.ID] = alias
	f.created = append(f.created, alias)
	return alias, nil
}

func (f *fakeAliasRepo) GetUserAlias(ctx context.Context, userID, id string) (*models.Alias, error) {
	alias := f.byID[id]
	if alias == nil || alias.UserID != userID {
		return nil, nil
	}
	return alias, nil
}

func (f *fakeAliasRepo) ListByUser(ctx context.Context, userID string) ([]models.Alias, error) {
	var result []models.Alias
	for _, alias := range f.byID {
		if alias.UserID == userID {
			result = append(result, *alias)
		}
	}
	return result, nil
}

func (f *fakeAliasRepo) Update(ctx context.Context, id string, update repository.AliasUpdate) (*models.Alias, error) {
	f.updates[id] = update
	alias := f.byID[id]
	if alias == nil {
		return nil, errors.New("not found")
	}
	if update.Destination != nil {
		alias.Destination = *update.Destination
	}
	if update.IsActive != nil {
		alias.IsActive = *update.IsActive
	}
	return alias, nil
}

func (f *fakeAliasRepo) Delete(ctx context.Context, id string) (bool, error) {
	_, ok := f.byID[id]
	if ok {
		delete(f.byID, id)
		f.deleted = append(f.deleted, id)
	}
	return ok, nil
}

type fakeProvisionRepo struct {
	entries map[string]*models.ProvisionLog
	seq     int
}

func newFakeProvisionRepo() *fakeProvisionRepo {
	return &fakeProvisionRepo{entries: make(map[string]*models.ProvisionLog)}
}

func (f *fakeProvisionRepo) Create(ctx context.Context, entry *models.ProvisionLog) (string, error) {
	f.seq++
	entry.ID = fmt.Sprintf("prov_%d", f.seq)
	f.entries[entry.ID] = entry
	return entry.ID, nil
}

func (f *fakeProvisionRepo) MarkCommitted(ctx context.Context, id string) error {
	if entry, ok := f.entries[id]; ok {
		entry.Committed = true
	}
	return nil
}

func (f *fakeProvisionRepo) ListUncommittedOlderThan(ctx context.Context, cutoff time.Time) ([]*models.ProvisionLog, error) {
	return nil, nil
}

func (f *fakeProvisionRepo) Delete(ctx context.Context, id string) error {
	delete(f.entries, id)
	return nil
}

type aliasCreateCall struct {
	address     string
	destination string
}

type fakeMailcow struct {
	createAliasErr error
	updateAliasErr error
	deleteAliasErr error

	createCalls []aliasCreateCall
	patches     map[string]*interfaces.MailcowAliasPatch
	deleted     []string
}

func newFakeMailcow() *fakeMailcow {
	return &fakeMailcow{patches: make(map[string]*interfaces.MailcowAliasPatch)}
}

func (f *fakeMailcow) CreateDomain(ctx context.Context, name string) (string, error) {
	return name, nil
}

func (f *fakeMailcow) DeleteDomain(ctx context.Context, name string) error {
	return nil
}

func (f *fakeMailcow) CreateMailbox(ctx context.Context, localPart, domain, password string, quota int, displayName string) (string, error) {
	return "", nil
}

func (f *fakeMailcow) UpdateMailbox(ctx context.Context, email string, patch *interfaces.MailcowMailboxPatch) error {
	return nil
}

func (f *fakeMailcow) DeleteMailbox(ctx context.Context, email string) error {
	return nil
}

func (f *fakeMailcow) CreateAlias(ctx context.Context, address, destination string) (string, error) {
	if f.createAliasErr != nil {
		return "", f.createAliasErr
	}
	f.createCalls = append(f.createCalls, aliasCreateCall{address, destination})
	return address, nil
}

func (f *fakeMailcow) UpdateAlias(ctx context.Context, address string, patch *interfaces.MailcowAliasPatch) error {
	if f.updateAliasErr != nil {
		return f.updateAliasErr
	}
	f.patches[address] = patch
	return nil
}

func (f *fakeMailcow) DeleteAlias(ctx context.Context, address string) error {
	if f.deleteAliasErr != nil {
		return f.deleteAliasErr
	}
	f.deleted = append(f.deleted, address)
	return nil
}

func (f *fakeMailcow) GetMailboxUsage(ctx context.Context, email string) interfaces.MailboxUsage {
	return interfaces.MailboxUsage{}
}

func newTestService(domains *fakeDomainRepo, aliases *fakeAliasRepo, provisions *fakeProvisionRepo, mc *fakeMailcow) interfaces.AliasService {
	repos := &repository.Repositories{
		DomainRepository:       domains,
		AliasRepository:        aliases,
		ProvisionLogRepository: provisions,
	}
	return NewAliasService(getTestLogger(), repos, mc)
}

func ownedDomain(userID string) *fakeDomainRepo {
	return &fakeDomainRepo{byID: map[string]*models.Domain{
		"dom_1": {ID: "dom_1", Name: "good.com", UserID: userID},
	}}
}

func TestCreateAliasRecomposesAddress(t *testing.T) {
	aliases := newFakeAliasRepo()
	mc := newFakeMailcow()
	svc := newTestService(ownedDomain("user_1"), aliases, newFakeProvisionRepo(), mc)

	created, err := svc.CreateAlias(userContext("user_1"), interfaces.AliasCreateInput{
		Address:     "Sales@evil.com",
		DomainID:    "dom_1",
		Destination: "team@other.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "sales@good.com", created.Address)
	assert.Equal(t, "team@other.com", created.Destination)
	require.Len(t, mc.createCalls, 1)
	assert.Equal(t, "sales@good.com", mc.createCalls[0].address)
	assert.Equal(t, "team@other.com", mc.createCalls[0].destination)
}

func TestCreateAliasInvalidDestination(t *testing.T) {
	mc := newFakeMailcow()
	svc := newTestService(ownedDomain("user_1"), newFakeAliasRepo(), newFakeProvisionRepo(), mc)

	_, err := svc.CreateAlias(userContext("user_1"), interfaces.AliasCreateInput{
		Address:     "sales",
		DomainID:    "dom_1",
		Destination: "not-an-email",
	})
	assert.True(t, errors.Is(err, er.ErrInvalidDestination))
	assert.Empty(t, mc.createCalls)
}

func TestCreateAliasForeignDomain(t *testing.T) {
	mc := newFakeMailcow()
	svc := newTestService(ownedDomain("user_2"), newFakeAliasRepo(), newFakeProvisionRepo(), mc)

	_, err := svc.CreateAlias(userContext("user_1"), interfaces.AliasCreateInput{
		Address:     "sales",
		DomainID:    "dom_1",
		Destination: "team@other.com",
	})
	assert.True(t, errors.Is(err, er.ErrDomainNotFound))
	assert.Empty(t, mc.createCalls)
}

func TestCreateAliasExternalFailureSkipsLocalWrite(t *testing.T) {
	aliases := newFakeAliasRepo()
	mc := newFakeMailcow()
	mc.createAliasErr = errors.New("mailcow down")
	svc := newTestService(ownedDomain("user_1"), aliases, newFakeProvisionRepo(), mc)

	_, err := svc.CreateAlias(userContext("user_1"), interfaces.AliasCreateInput{
		Address:     "sales",
		DomainID:    "dom_1",
		Destination: "team@other.com",
	})
	require.Error(t, err)
	assert.Empty(t, aliases.created)
}

func TestCreateAliasRecordsProvision(t *testing.T) {
	aliases := newFakeAliasRepo()
	provisions := newFakeProvisionRepo()
	mc := newFakeMailcow()
	svc := newTestService(ownedDomain("user_1"), aliases, provisions, mc)

	_, err := svc.CreateAlias(userContext("user_1"), interfaces.AliasCreateInput{
		Address:     "sales",
		DomainID:    "dom_1",
		Destination: "team@other.com",
	})
	require.NoError(t, err)

	require.Len(t, provisions.entries, 1)
	for _, entry := range provisions.entries {
		assert.Equal(t, "alias", entry.ResourceKind)
		assert.Equal(t, "sales@good.com", entry.ExternalID)
		assert.True(t, entry.Committed)
	}
}

func existingAlias(repo *fakeAliasRepo, userID string, withExternalID bool) *models.Alias {
	alias := &models.Alias{
		ID:          "als_1",
		Address:     "sales@good.com",
		Destination: "team@other.com",
		DomainID:    "dom_1",
		UserID:      userID,
		IsActive:    true,
	}
	if withExternalID {
		external := "sales@good.com"
		alias.MailcowAliasID = &external
	}
	repo.byID[alias.ID] = alias
	return alias
}

func TestUpdateAliasSendsOnlyPresentFields(t *testing.T) {
	aliases := newFakeAliasRepo()
	existingAlias(aliases, "user_1", true)
	mc := newFakeMailcow()
	svc := newTestService(ownedDomain("user_1"), aliases, newFakeProvisionRepo(), mc)

	updated, err := svc.UpdateAlias(userContext("user_1"), "als_1", interfaces.AliasUpdateInput{
		Destination: utils.Ptr("newteam@other.com"),
	})
	require.NoError(t, err)

	patch := mc.patches["sales@good.com"]
	require.NotNil(t, patch)
	require.NotNil(t, patch.Goto)
	assert.Equal(t, "newteam@other.com", *patch.Goto)
	assert.Nil(t, patch.Active)

	assert.Equal(t, "newteam@other.com", updated.Destination)
}

func TestUpdateAliasInvalidDestination(t *testing.T) {
	aliases := newFakeAliasRepo()
	existingAlias(aliases, "user_1", true)
	mc := newFakeMailcow()
	svc := newTestService(ownedDomain("user_1"), aliases, newFakeProvisionRepo(), mc)

	_, err := svc.UpdateAlias(userContext("user_1"), "als_1", interfaces.AliasUpdateInput{
		Destination: utils.Ptr("not-an-email"),
	})
	assert.True(t, errors.Is(err, er.ErrInvalidDestination))
	assert.Empty(t, mc.patches)
	assert.Empty(t, aliases.updates)
}

func TestUpdateAliasForeignOwner(t *testing.T) {
	aliases := newFakeAliasRepo()
	existingAlias(aliases, "user_2", true)
	mc := newFakeMailcow()
	svc := newTestService(ownedDomain("user_2"), aliases, newFakeProvisionRepo(), mc)

	_, err := svc.UpdateAlias(userContext("user_1"), "als_1", interfaces.AliasUpdateInput{
		IsActive: utils.Ptr(false),
	})
	assert.True(t, errors.Is(err, er.ErrAliasNotFound))
	assert.Empty(t, mc.patches)
}

func TestUpdateAliasExternalFailureSkipsLocalWrite(t *testing.T) {
	aliases := newFakeAliasRepo()
	existingAlias(aliases, "user_1", true)
	mc := newFakeMailcow()
	mc.updateAliasErr = errors.New("mailcow down")
	svc := newTestService(ownedDomain("user_1"), aliases, newFakeProvisionRepo(), mc)

	_, err := svc.UpdateAlias(userContext("user_1"), "als_1", interfaces.AliasUpdateInput{
		IsActive: utils.Ptr(false),
	})
	require.Error(t, err)
	assert.Empty(t, aliases.updates)
	assert.True(t, aliases.byID["als_1"].IsActive)
}

func TestDeleteAliasExternalFailureKeepsRecord(t *testing.T) {
	aliases := newFakeAliasRepo()
	existingAlias(aliases, "user_1", true)
	mc := newFakeMailcow()
	mc.deleteAliasErr = errors.New("mailcow down")
	svc := newTestService(ownedDomain("user_1"), aliases, newFakeProvisionRepo(), mc)

	err := svc.DeleteAlias(userContext("user_1"), "als_1")
	require.Error(t, err)
	assert.Empty(t, aliases.deleted)
	assert.Contains(t, aliases.byID, "als_1")
}

func TestDeleteAlias(t *testing.T) {
	aliases := newFakeAliasRepo()
	existingAlias(aliases, "user_1", true)
	mc := newFakeMailcow()
	svc := newTestService(ownedDomain("user_1"), aliases, newFakeProvisionRepo(), mc)

	err := svc.DeleteAlias(userContext("user_1"), "als_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sales@good.com"}, mc.deleted)
	assert.Equal(t, []string{"als_1"}, aliases.deleted)
}
