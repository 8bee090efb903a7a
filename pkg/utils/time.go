package utils

import "time"

// time.go - утилиты для работы со временем
//
// Назначение:
// Вспомогательные функции для временных операций, используемые
// агрегатором свечей для вычисления границ минутных бакетов.
//
// Функции:
// - BucketStart: начало минутного бакета для момента времени
// - BucketEnd: конец минутного бакета
// - SameBucket: принадлежат ли два момента одному бакету
//
// Использование:
// - Вычисление bucket_start при открытии свечи
// - Детект пересечения минутной границы update-задачей
// - Фильтрация тиков по диапазону текущего бакета

// BucketDuration - длительность одного бакета свечи.
// Гранулярность фиксирована: одна минута.
const BucketDuration = time.Minute

// BucketStart возвращает начало минутного бакета для указанного времени в UTC
//
// Пример:
//
//	// t: 2024-01-15 14:30:45.123 UTC
//	start := BucketStart(t)
//	// start: 2024-01-15 14:30:00 UTC
func BucketStart(t time.Time) time.Time {
	return t.UTC().Truncate(BucketDuration)
}

// BucketEnd возвращает конец бакета (начало следующей минуты) в UTC
func BucketEnd(t time.Time) time.Time {
	return BucketStart(t).Add(BucketDuration)
}

// SameBucket проверяет, принадлежат ли два момента одному минутному бакету
//
// Используется update-задачей свечей: как только текущее время перестаёт
// принадлежать бакету, задача прекращает писать в его строку.
func SameBucket(a, b time.Time) bool {
	return BucketStart(a).Equal(BucketStart(b))
}
