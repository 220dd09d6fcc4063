package pool

import (
	"encoding/json"
	"testing"
	"time"
)

// threadEntry 测试用缓存条目
type threadEntry struct {
	TID      int64  `json:"tid"`
	Subject  string `json:"subject"`
	Views    int    `json:"views"`
	Replies  int    `json:"replies"`
	Dateline int64  `json:"dateline"`
}

func TestBigCache_SetGetRemove(t *testing.T) {
	cache, err := NewBigCache(8, 10*time.Minute)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	defer cache.Close()

	if _, ok := cache.Get("missing"); ok {
		t.Fatal("expected miss for unknown key")
	}

	if err := cache.Set("k1", []byte("v1")); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	data, ok := cache.Get("k1")
	if !ok || string(data) != "v1" {
		t.Fatalf("got %q ok=%v, want v1", data, ok)
	}

	cache.Remove("k1")
	if _, ok := cache.Get("k1"); ok {
		t.Fatal("expected miss after remove")
	}
}

func TestBigCache_Flush(t *testing.T) {
	cache, err := NewBigCache(8, 10*time.Minute)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	defer cache.Close()

	cache.Set("k1", []byte("v1"))
	cache.Set("k2", []byte("v2"))
	if err := cache.Flush(); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if _, ok := cache.Get("k1"); ok {
		t.Fatal("expected miss after flush")
	}
	if _, ok := cache.Get("k2"); ok {
		t.Fatal("expected miss after flush")
	}
}

func TestSimpleCache(t *testing.T) {
	cache := NewSimpleCache[string, threadEntry]()

	if _, ok := cache.Get("missing"); ok {
		t.Fatal("expected miss for unknown key")
	}

	cache.Set("k1", threadEntry{TID: 1, Subject: "hello"})
	got, ok := cache.Get("k1")
	if !ok || got.TID != 1 || got.Subject != "hello" {
		t.Fatalf("got %+v ok=%v", got, ok)
	}

	cache.Remove("k1")
	if _, ok := cache.Get("k1"); ok {
		t.Fatal("expected miss after remove")
	}

	cache.Set("k2", threadEntry{TID: 2})
	cache.Flush()
	if _, ok := cache.Get("k2"); ok {
		t.Fatal("expected miss after flush")
	}
}

func BenchmarkBigCache_Set(b *testing.B) {
	cache, err := NewBigCache(64, 10*time.Minute)
	if err != nil {
		b.Fatalf("failed to create cache: %v", err)
	}
	defer cache.Close()

	value, _ := json.Marshal(threadEntry{
		TID:      1,
		Subject:  "Test Thread Subject",
		Views:    1000,
		Replies:  10,
		Dateline: time.Now().Unix(),
	})

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		cache.Set(formatKey(i), value)
	}
}

func BenchmarkBigCache_Get(b *testing.B) {
	cache, err := NewBigCache(64, 10*time.Minute)
	if err != nil {
		b.Fatalf("failed to create cache: %v", err)
	}
	defer cache.Close()

	// 预热数据
	value, _ := json.Marshal(threadEntry{
		TID:      1,
		Subject:  "Test Thread Subject",
		Views:    1000,
		Replies:  10,
		Dateline: time.Now().Unix(),
	})
	for i := 0; i < 10000; i++ {
		cache.Set(formatKey(i), value)
	}

	b.ResetTimer()
	b.ReportAllocs()

	// 100% 缓存命中
	for i := 0; i < b.N; i++ {
		cache.Get(formatKey(i % 10000))
	}
}

func BenchmarkBigCache_GetUnmarshal(b *testing.B) {
	cache, err := NewBigCache(64, 10*time.Minute)
	if err != nil {
		b.Fatalf("failed to create cache: %v", err)
	}
	defer cache.Close()

	value, _ := json.Marshal(threadEntry{
		TID:      1,
		Subject:  "Hot Thread",
		Views:    100000,
		Replies:  1000,
		Dateline: time.Now().Unix(),
	})
	for i := 0; i < 1000; i++ {
		cache.Set(formatKey(i), value)
	}

	b.ResetTimer()
	b.ReportAllocs()

	// 命中 + 反序列化，接近读路径的真实开销
	for i := 0; i < b.N; i++ {
		data, ok := cache.Get(formatKey(i % 1000))
		if !ok {
			b.Fatal("unexpected miss")
		}
		var entry threadEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSimpleCache_Set(b *testing.B) {
	cache := NewSimpleCache[string, threadEntry]()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		cache.Set(formatKey(i), threadEntry{
			TID:      int64(i),
			Subject:  "Test Thread Subject",
			Views:    1000 + i,
			Replies:  10 + i%100,
			Dateline: time.Now().Unix(),
		})
	}
}

func BenchmarkSimpleCache_Get(b *testing.B) {
	cache := NewSimpleCache[string, threadEntry]()

	// 预热数据
	for i := 0; i < 10000; i++ {
		cache.Set(formatKey(i), threadEntry{
			TID:      int64(i),
			Subject:  "Test Thread Subject",
			Views:    1000 + i,
			Replies:  10 + i%100,
			Dateline: time.Now().Unix(),
		})
	}

	b.ResetTimer()
	b.ReportAllocs()

	// 100% 缓存命中
	for i := 0; i < b.N; i++ {
		cache.Get(formatKey(i % 10000))
	}
}

func formatKey(i int) string {
	return "thread:" + string(rune('a'+i%26)) + itoa(i)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}
