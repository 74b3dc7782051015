package service

import (
	"context"
	"io"
	"testing"

	"WarTrack/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 内存库只允许单连接，避免连接池拿到不同的空库
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Equipment{},
		&model.AllEquipment{},
		&model.System{},
		&model.AllSystem{},
		&model.ImportRun{},
	))
	return db
}

func newTestLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeScraper 测试用数据源：固定返回配置的行/错误；
// started/release 非nil时在第一次拉取处阻塞，用于并发场景
type fakeScraper struct {
	equipments    []model.RawRecord
	allEquipments []model.RawRecord
	systems       []model.RawRecord
	allSystems    []model.RawRecord
	err           error
	started       chan struct{}
	release       chan struct{}
}

func (f *fakeScraper) wait() {
	if f.started != nil {
		select {
		case <-f.started: // 已通知过
		default:
			close(f.started)
		}
	}
	if f.release != nil {
		<-f.release
	}
}

func (f *fakeScraper) FetchEquipments(ctx context.Context) ([]model.RawRecord, error) {
	f.wait()
	return f.equipments, f.err
}

func (f *fakeScraper) FetchAllEquipments(ctx context.Context) ([]model.RawRecord, error) {
	return f.allEquipments, f.err
}

func (f *fakeScraper) FetchSystems(ctx context.Context) ([]model.RawRecord, error) {
	return f.systems, f.err
}

func (f *fakeScraper) FetchAllSystems(ctx context.Context) ([]model.RawRecord, error) {
	return f.allSystems, f.err
}

func equipmentRow(country, typ, date string, destroyed string) model.RawRecord {
	return model.RawRecord{
		"country":        country,
		"equipment_type": typ,
		"date_recorded":  date,
		"destroyed":      destroyed,
		"abandoned":      "1",
		"captured":       "2",
		"damaged":        "3",
		"type_total":     "20",
	}
}

// 同键重复导入：只保留一行，可变字段取第二次的值
func TestImportEquipmentsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sc := &fakeScraper{equipments: []model.RawRecord{
		equipmentRow("ukraine", "Tanks", "2023-01-01", "10"),
	}}
	svc := NewEquipmentsService(db, sc, newTestLogger())

	res, err := svc.ImportEquipments(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)

	sc.equipments = []model.RawRecord{
		equipmentRow("ukraine", "Tanks", "2023-01-01", "12"),
	}
	res, err = svc.ImportEquipments(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)

	var rows []model.Equipment
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, 12, rows[0].Destroyed)
}

// 增量模式：已有日期的行被跳过，只入库新日期
func TestImportEquipmentsIncrementalSkip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sc := &fakeScraper{equipments: []model.RawRecord{
		equipmentRow("ukraine", "Tanks", "2023-01-01", "10"),
	}}
	svc := NewEquipmentsService(db, sc, newTestLogger())

	_, err := svc.ImportEquipments(ctx, true)
	require.NoError(t, err)

	sc.equipments = []model.RawRecord{
		equipmentRow("ukraine", "Tanks", "2023-01-01", "99"), // 日期已存在，应跳过
		equipmentRow("ukraine", "Tanks", "2023-01-02", "11"),
	}
	res, err := svc.ImportEquipments(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Fetched)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Imported)

	var rows []model.Equipment
	require.NoError(t, db.Order("date").Find(&rows).Error)
	require.Len(t, rows, 2)
	// 已存在日期的行保持原值，没有被99覆盖
	assert.Equal(t, 10, rows[0].Destroyed)
	assert.Equal(t, 11, rows[1].Destroyed)
}

// 空批次（数据源为空或全部已存在）是成功，不是错误
func TestImportEquipmentsEmptyIsSuccess(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sc := &fakeScraper{}
	svc := NewEquipmentsService(db, sc, newTestLogger())

	res, err := svc.ImportEquipments(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Imported)

	// 第二种空批次：全部被日期过滤掉
	sc.equipments = []model.RawRecord{
		equipmentRow("ukraine", "Tanks", "2023-01-01", "10"),
	}
	_, err = svc.ImportEquipments(ctx, true)
	require.NoError(t, err)

	res, err = svc.ImportEquipments(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 0, res.Imported)
}

// 数值垃圾是本次导入的硬失败：整批不落库
func TestImportEquipmentsCoercionFailureAtomic(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sc := &fakeScraper{equipments: []model.RawRecord{
		equipmentRow("ukraine", "Tanks", "2023-01-01", "10"),
		equipmentRow("ukraine", "Aircraft", "2023-01-01", "not-a-number"),
	}}
	svc := NewEquipmentsService(db, sc, newTestLogger())

	_, err := svc.ImportEquipments(ctx, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "destroyed")

	var count int64
	require.NoError(t, db.Model(&model.Equipment{}).Count(&count).Error)
	assert.EqualValues(t, 0, count, "失败批次不得有任何行落库")
}

// 数值字段缺失或为空串按0处理
func TestImportEquipmentsMissingNumericIsZero(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sc := &fakeScraper{equipments: []model.RawRecord{
		{
			"country":        "russia",
			"equipment_type": "Radars",
			"date_recorded":  "2023-02-01",
			"destroyed":      "",
			// abandoned/captured/damaged/type_total 整列缺失
		},
	}}
	svc := NewEquipmentsService(db, sc, newTestLogger())

	res, err := svc.ImportEquipments(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)

	var row model.Equipment
	require.NoError(t, db.First(&row).Error)
	assert.Zero(t, row.Destroyed)
	assert.Zero(t, row.Abandoned)
	assert.Zero(t, row.Total)
}

// 日期格式不合法同样是硬失败
func TestImportEquipmentsBadDateFails(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sc := &fakeScraper{equipments: []model.RawRecord{
		equipmentRow("ukraine", "Tanks", "01/02/2023", "10"),
	}}
	svc := NewEquipmentsService(db, sc, newTestLogger())

	_, err := svc.ImportEquipments(ctx, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date_recorded")
}

// 数据源不可达：错误上抛，库不受影响
func TestImportEquipmentsFetchFailure(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sc := &fakeScraper{err: assert.AnError}
	svc := NewEquipmentsService(db, sc, newTestLogger())

	_, err := svc.ImportEquipments(ctx, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "拉取equipment数据失败")
}

func TestGetEquipmentsDateRangeValidation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewEquipmentsService(db, &fakeScraper{}, newTestLogger())

	// start > end 是校验错误
	_, err := svc.GetEquipments(ctx, model.CountryUkraine, nil, []string{"2023-02-01", "2023-01-01"})
	require.Error(t, err)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	// 格式错误同样拒绝
	_, err = svc.GetEquipments(ctx, model.CountryUkraine, nil, []string{"2023/01/01", "2023-01-31"})
	require.Error(t, err)
	assert.ErrorAs(t, err, &verr)

	// 区间元素个数错误
	_, err = svc.GetEquipments(ctx, model.CountryUkraine, nil, []string{"2023-01-01"})
	require.Error(t, err)
	assert.ErrorAs(t, err, &verr)
}

func TestGetEquipmentsDateRangeInclusive(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sc := &fakeScraper{equipments: []model.RawRecord{
		equipmentRow("ukraine", "Tanks", "2022-12-31", "1"),
		equipmentRow("ukraine", "Tanks", "2023-01-01", "2"),
		equipmentRow("ukraine", "Tanks", "2023-01-31", "3"),
		equipmentRow("ukraine", "Tanks", "2023-02-01", "4"),
	}}
	svc := NewEquipmentsService(db, sc, newTestLogger())
	_, err := svc.ImportEquipments(ctx, true)
	require.NoError(t, err)

	rows, err := svc.GetEquipments(ctx, model.CountryUkraine, nil, []string{"2023-01-01", "2023-01-31"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.GreaterOrEqual(t, r.Date, "2023-01-01")
		assert.LessOrEqual(t, r.Date, "2023-01-31")
	}
}

// 国家过滤大小写不敏感：库里存大写也能按小写命中
func TestGetEquipmentsCountryCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sc := &fakeScraper{equipments: []model.RawRecord{
		equipmentRow("Ukraine", "Tanks", "2023-01-01", "10"),
		equipmentRow("Russia", "Tanks", "2023-01-01", "20"),
	}}
	svc := NewEquipmentsService(db, sc, newTestLogger())
	_, err := svc.ImportEquipments(ctx, true)
	require.NoError(t, err)

	rows, err := svc.GetEquipments(ctx, model.CountryUkraine, nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ukraine", rows[0].Country)

	// all 哨兵不过滤
	rows, err = svc.GetEquipments(ctx, model.CountryAll, nil, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestGetEquipmentsTypeFilter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sc := &fakeScraper{equipments: []model.RawRecord{
		equipmentRow("ukraine", "Tanks", "2023-01-01", "10"),
		equipmentRow("ukraine", "Aircraft", "2023-01-01", "5"),
		equipmentRow("ukraine", "Helicopters", "2023-01-01", "2"),
	}}
	svc := NewEquipmentsService(db, sc, newTestLogger())
	_, err := svc.ImportEquipments(ctx, true)
	require.NoError(t, err)

	rows, err := svc.GetEquipments(ctx, model.CountryUkraine,
		[]model.EquipmentType{model.EquipmentTanks, model.EquipmentAircraft}, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

// 总量查询按 (country, type) 排序，结果确定
func TestGetTotalEquipmentsOrdering(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sc := &fakeScraper{allEquipments: []model.RawRecord{
		{"country": "ukraine", "equipment_type": "Tanks", "destroyed": "1", "type_total": "1"},
		{"country": "russia", "equipment_type": "Tanks", "destroyed": "2", "type_total": "2"},
		{"country": "russia", "equipment_type": "Aircraft", "destroyed": "3", "type_total": "3"},
	}}
	svc := NewEquipmentsService(db, sc, newTestLogger())
	_, err := svc.ImportAllEquipments(ctx)
	require.NoError(t, err)

	rows, err := svc.GetTotalEquipments(ctx, model.CountryAll, nil)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "russia", rows[0].Country)
	assert.Equal(t, "Aircraft", rows[0].Type)
	assert.Equal(t, "russia", rows[1].Country)
	assert.Equal(t, "Tanks", rows[1].Type)
	assert.Equal(t, "ukraine", rows[2].Country)
}

// 类型列表：去重、升序，可限定国家
func TestGetEquipmentTypes(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sc := &fakeScraper{allEquipments: []model.RawRecord{
		{"country": "ukraine", "equipment_type": "Tanks"},
		{"country": "russia", "equipment_type": "Tanks"},
		{"country": "russia", "equipment_type": "Aircraft"},
	}}
	svc := NewEquipmentsService(db, sc, newTestLogger())
	_, err := svc.ImportAllEquipments(ctx)
	require.NoError(t, err)

	types, err := svc.GetEquipmentTypes(ctx, model.CountryAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"Aircraft", "Tanks"}, types)

	types, err = svc.GetEquipmentTypes(ctx, model.CountryUkraine)
	require.NoError(t, err)
	assert.Equal(t, []string{"Tanks"}, types)
}

// 总量导入是整体重新upsert：第二轮的值覆盖第一轮
func TestImportAllEquipmentsOverwrites(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sc := &fakeScraper{allEquipments: []model.RawRecord{
		{"country": "russia", "equipment_type": "Tanks", "destroyed": "100", "type_total": "120"},
	}}
	svc := NewEquipmentsService(db, sc, newTestLogger())
	_, err := svc.ImportAllEquipments(ctx)
	require.NoError(t, err)

	sc.allEquipments = []model.RawRecord{
		{"country": "russia", "equipment_type": "Tanks", "destroyed": "105", "type_total": "130"},
	}
	_, err = svc.ImportAllEquipments(ctx)
	require.NoError(t, err)

	var rows []model.AllEquipment
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, 105, rows[0].Destroyed)
	assert.Equal(t, 130, rows[0].Total)
}
