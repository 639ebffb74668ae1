// Package clock, zamana bağlı kuralların testlerde sabitlenebilmesi için tek giriş noktası.
package clock

import "time"

var Now = time.Now

// Set - testlerde saati sabitler, dönen fonksiyon eski saati geri yükler
func Set(t time.Time) (restore func()) {
	prev := Now
	Now = func() time.Time { return t }
	return func() { Now = prev }
}
