// Пакет trailer — скользящее окно для отделения контрольной суммы,
// дописанной клиентом в конец потока загрузки.
//
// Протокол загрузки самоописываем: последние N байт переданного тела —
// это контрольная сумма полезной нагрузки в текстовом виде. Буфер
// удерживает ровно последние N увиденных байт; всё, что вытесняется
// новыми данными, гарантированно не является trailer'ом и может быть
// записано в хранилище и учтено в хэше.
package trailer

// Buffer — кольцевой буфер фиксированной ёмкости поверх последних
// N байт потока. Корректен при любых границах чанков: больше N,
// меньше N и пустых.
type Buffer struct {
	buf   []byte
	size  int
	start int
	count int
}

// NewBuffer создаёт буфер ёмкостью size байт.
func NewBuffer(size int) *Buffer {
	return &Buffer{
		buf:  make([]byte, size),
		size: size,
	}
}

// Push добавляет байты в буфер и возвращает вытесненные байты
// в исходном порядке потока. Если после добавления буфер превысил бы
// ёмкость, самые старые байты вытесняются; при len(p) >= size буфер
// целиком замещается хвостом p, а всё остальное вытесняется.
func (b *Buffer) Push(p []byte) []byte {
	if len(p) == 0 {
		return nil
	}

	overflow := b.count + len(p) - b.size
	if overflow <= 0 {
		b.append(p)
		return nil
	}

	evicted := make([]byte, 0, overflow)

	// Сначала вытесняются старые байты буфера...
	fromBuf := min(overflow, b.count)
	for i := 0; i < fromBuf; i++ {
		evicted = append(evicted, b.buf[(b.start+i)%b.size])
	}
	b.start = (b.start + fromBuf) % b.size
	b.count -= fromBuf

	// ...затем, если чанк длиннее ёмкости, транзитом проходит его начало.
	passThrough := overflow - fromBuf
	evicted = append(evicted, p[:passThrough]...)

	b.append(p[passThrough:])
	return evicted
}

// append дописывает p в хвост; вызывающий код гарантирует,
// что места достаточно.
func (b *Buffer) append(p []byte) {
	for _, c := range p {
		b.buf[(b.start+b.count)%b.size] = c
		b.count++
	}
}

// Get возвращает текущее содержимое буфера от старых байт к новым.
// Длина результата равна Len().
func (b *Buffer) Get() []byte {
	out := make([]byte, b.count)
	for i := 0; i < b.count; i++ {
		out[i] = b.buf[(b.start+i)%b.size]
	}
	return out
}

// Len возвращает текущее заполнение буфера, всегда <= Size().
func (b *Buffer) Len() int {
	return b.count
}

// Size возвращает ёмкость буфера.
func (b *Buffer) Size() int {
	return b.size
}
